package repository

import (
	"time"

	"ksk-service/internal/model"
)

func seedTime(day, hour int) time.Time {
	return time.Date(2025, time.October, day, hour, 0, 0, 0, time.UTC)
}

// MockRequests is the dataset written on first run.
func MockRequests() []model.Request {
	return []model.Request{
		{
			ID:          "1",
			Title:       "Не работает освещение в подъезде",
			Description: "Во втором подъезде третий день не горят лампы на этажах с 3 по 7.",
			Category:    "lighting",
			Status:      model.StatusNew,
			Coordinates: model.Coordinates{43.2389, 76.8897},
			CreatedAt:   seedTime(1, 9),
			Address:     "мкр. Самал-2, дом 111",
			Author:      "Жилец",
			Identifier:  "950101300123",
			City:        "Алматы",
		},
		{
			ID:          "2",
			Title:       "Застрял лифт",
			Description: "Пассажирский лифт остановился между 5 и 6 этажами, кнопка вызова не реагирует.",
			Category:    "lift",
			Status:      model.StatusInProgress,
			Coordinates: model.Coordinates{43.2245, 76.9012},
			CreatedAt:   seedTime(2, 14),
			Address:     "ул. Розыбакиева, дом 247",
			Author:      "Жилец",
			Identifier:  "880515400234",
			City:        "Алматы",
		},
		{
			ID:          "3",
			Title:       "Прорыв трубы в подвале",
			Description: "В подвале течёт горячая вода, затоплены кладовые.",
			Category:    "emergency",
			Status:      model.StatusDone,
			Coordinates: model.Coordinates{43.2301, 76.8764},
			CreatedAt:   seedTime(3, 7),
			Address:     "мкр. Аксай-4, дом 89",
			Author:      "Жилец",
			Identifier:  "920320500345",
			City:        "Алматы",
			Report:      strPtr("Заменён участок трубы, подвал осушен."),
		},
		{
			ID:          "4",
			Title:       "Сломаны качели на площадке",
			Description: "На детской площадке оторвано сиденье качелей, есть острые края.",
			Category:    "playground",
			Status:      model.StatusNew,
			Coordinates: model.Coordinates{43.2156, 76.8612},
			CreatedAt:   seedTime(4, 11),
			Address:     "мкр. Мамыр-1, дом 29",
			Author:      "Жилец",
			City:        "Алматы",
		},
		{
			ID:          "5",
			Title:       "Холодные батареи",
			Description: "Отопление включили, но в квартирах северной стороны батареи холодные.",
			Category:    "heating",
			Status:      model.StatusNew,
			Coordinates: model.Coordinates{51.1694, 71.4491},
			CreatedAt:   seedTime(5, 8),
			Address:     "пр. Республики, дом 12",
			Author:      "Жилец",
			City:        "Астана",
		},
		{
			ID:          "6",
			Title:       "Мусор во дворе",
			Description: "Контейнеры переполнены, мусор не вывозили с пятницы.",
			Category:    "cleaning",
			Status:      model.StatusInProgress,
			Coordinates: model.Coordinates{51.1283, 71.4305},
			CreatedAt:   seedTime(6, 16),
			Address:     "ул. Кенесары, дом 40",
			Author:      "Жилец",
			City:        "Астана",
		},
		{
			ID:          "7",
			Title:       "Шум от ремонта ночью",
			Description: "В квартире на 4 этаже ведутся шумные работы после 23:00.",
			Category:    "noise",
			Status:      model.StatusNew,
			Coordinates: model.Coordinates{52.2871, 76.9672},
			CreatedAt:   seedTime(7, 23),
			Address:     "ул. Торайгырова, дом 64",
			Author:      "Жилец",
			City:        "Павлодар",
		},
		{
			ID:          "8",
			Title:       "Машины перекрыли проезд",
			Description: "Автомобили паркуются у въезда во двор, скорая не может проехать.",
			Category:    "parking",
			Status:      model.StatusDone,
			Coordinates: model.Coordinates{52.2790, 76.9551},
			CreatedAt:   seedTime(8, 10),
			Address:     "ул. Естая, дом 83",
			Author:      "Жилец",
			City:        "Павлодар",
		},
	}
}

func strPtr(s string) *string {
	return &s
}
