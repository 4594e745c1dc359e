package model

type Category struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

var Categories = []Category{
	{ID: "emergency", Label: "Аварийная", Icon: "🚨"},
	{ID: "cleaning", Label: "Уборка", Icon: "🧹"},
	{ID: "lighting", Label: "Освещение", Icon: "💡"},
	{ID: "lift", Label: "Лифт", Icon: "🛗"},
	{ID: "heating", Label: "Отопление", Icon: "🔥"},
	{ID: "repair", Label: "Ремонт", Icon: "🔧"},
	{ID: "parking", Label: "Парковка", Icon: "🚗"},
	{ID: "playground", Label: "Детская площадка", Icon: "🎪"},
	{ID: "noise", Label: "Шум", Icon: "🔊"},
	{ID: "other", Label: "Другое", Icon: "📋"},
}

// CategoryInfo looks up a category, falling back to the last entry ("other").
func CategoryInfo(id string) Category {
	for _, c := range Categories {
		if c.ID == id {
			return c
		}
	}
	return Categories[len(Categories)-1]
}

func IsValidCategory(id string) bool {
	for _, c := range Categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

func CategoryIDs() []string {
	ids := make([]string, len(Categories))
	for i, c := range Categories {
		ids[i] = c.ID
	}
	return ids
}
