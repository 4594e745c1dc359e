package model

type Role string

const (
	RoleCitizen    Role = "citizen"
	RoleDispatcher Role = "dispatcher"
)

const (
	// DispatcherIdentifier is the identifier granted the dispatcher role by default.
	DispatcherIdentifier = "000000000001"
	// PlaceholderIdentifier marks seeded requests that have no author identifier.
	PlaceholderIdentifier = "000000000000"
)

type Session struct {
	Identifier      string      `json:"identifier"`
	City            string      `json:"city"`
	CityCoordinates Coordinates `json:"cityCoordinates"`
	Role            Role        `json:"role"`
}

func (s *Session) IsDispatcher() bool {
	return s != nil && s.Role == RoleDispatcher
}

// ValidIdentifier reports whether v is exactly 12 ASCII decimal digits.
func ValidIdentifier(v string) bool {
	if len(v) != 12 {
		return false
	}
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return false
		}
	}
	return true
}

type City struct {
	Name        string      `json:"name"`
	Coordinates Coordinates `json:"coordinates"`
}

var Cities = []City{
	{Name: "Алматы", Coordinates: Coordinates{43.238293, 76.889709}},
	{Name: "Астана", Coordinates: Coordinates{51.169392, 71.449074}},
	{Name: "Павлодар", Coordinates: Coordinates{52.287054, 76.967155}},
}

func FindCity(name string) (City, bool) {
	for _, c := range Cities {
		if c.Name == name {
			return c, true
		}
	}
	return City{}, false
}

// DefaultCity is the map centre used when a session carries no coordinates.
func DefaultCity() City {
	return Cities[0]
}

type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

func (t Theme) Valid() bool {
	return t == ThemeDark || t == ThemeLight
}

type SessionResponse struct {
	Token        string         `json:"token,omitempty"`
	Session      *Session       `json:"session"`
	IsDispatcher bool           `json:"is_dispatcher"`
	CitizenData  *CitizenRecord `json:"citizen_data,omitempty"`
}

type ThemeRequest struct {
	Theme Theme `json:"theme" binding:"required"`
}
