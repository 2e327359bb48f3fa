package api

import "time"

// Project представляет проект пользователя на сервере
type Project struct {
	CreatedAt   time.Time `json:"created_at"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ID          int64     `json:"id"`
}

// CreateProjectRequest представляет запрос на создание проекта
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Dataset представляет загруженную таблицу данных внутри проекта
type Dataset struct {
	CreatedAt time.Time `json:"created_at"`
	Name      string    `json:"name"`
	Columns   []string  `json:"columns"`
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	Rows      int       `json:"rows"`
}

// DatasetSummary представляет описательную статистику по датасету.
// Вся статистика считается на сервере, клиент только отображает ее.
type DatasetSummary struct {
	Columns   map[string]ColumnSummary `json:"columns"`
	DatasetID int64                    `json:"dataset_id"`
}

// ColumnSummary представляет статистику по одной числовой колонке
type ColumnSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}
