package repository

import "ksk-service/internal/model"

var citizens = map[string]model.CitizenRecord{
	"950101300123": {
		Identifier:    "950101300123",
		FullName:      "Нурбол Серикович Алиев",
		Address:       "мкр. Самал-2, дом 111, кв. 45",
		Phone:         "+7 777 123 4567",
		Email:         "nurbol.aliev@mail.kz",
		RequestsCount: 3,
	},
	"880515400234": {
		Identifier:    "880515400234",
		FullName:      "Айгуль Кайратовна Касымова",
		Address:       "ул. Розыбакиева, дом 247, кв. 12",
		Phone:         "+7 701 234 5678",
		Email:         "aigul.kasymova@gmail.com",
		RequestsCount: 1,
	},
	"920320500345": {
		Identifier:    "920320500345",
		FullName:      "Даурен Маратович Жумабаев",
		Address:       "мкр. Аксай-4, дом 89, кв. 78",
		Phone:         "+7 747 345 6789",
		Email:         "dauren.zhumabaev@inbox.ru",
		RequestsCount: 5,
	},
	"000101200456": {
		Identifier:    "000101200456",
		FullName:      "Алия Бекзатовна Омарова",
		Address:       "мкр. Мамыр-1, дом 29, кв. 56",
		Phone:         "+7 775 456 7890",
		Email:         "aliya.omarova@mail.kz",
		RequestsCount: 2,
	},
	"850707300567": {
		Identifier:    "850707300567",
		FullName:      "Ерлан Саматович Нуркенов",
		Address:       "ул. Масанчи, дом 98б, кв. 23",
		Phone:         "+7 702 567 8901",
		Email:         "erlan.nurkenov@gmail.com",
		RequestsCount: 4,
	},
}

type CitizenRepository struct {
	records map[string]model.CitizenRecord
}

func NewCitizenRepository() *CitizenRepository {
	return &CitizenRepository{records: citizens}
}

// Lookup never fails: unknown identifiers get a placeholder record.
func (r *CitizenRepository) Lookup(identifier string) model.CitizenRecord {
	if rec, ok := r.records[identifier]; ok {
		return rec
	}
	return model.CitizenRecord{
		Identifier:    identifier,
		FullName:      "Гражданин Республики Казахстан",
		Address:       "Не указан",
		Phone:         "+7 700 000 0000",
		Email:         "citizen@mail.kz",
		RequestsCount: 0,
	}
}
