package store

import "time"

// Listing is one persisted real-estate result row.
type Listing struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Title     string    `gorm:"type:text"`
	Date      time.Time `gorm:"type:date"`
	Location  string    `gorm:"type:text"`
	Price     int
	Bedrooms  int
	Bathrooms int
	Size      int
	Other     string `gorm:"type:text"`
	CreatedAt time.Time
}

// TableName keeps the table name the presentation tooling expects.
func (Listing) TableName() string { return "real_estate_listings" }

// InterestRate is one persisted interest-rate result row. Rate and APR
// are nullable: "N/A" from the agent becomes NULL, not zero.
type InterestRate struct {
	ID          uint     `gorm:"primaryKey;autoIncrement"`
	RateType    string   `gorm:"type:text"`
	Rate        *float64 `gorm:"type:numeric"`
	APR         *float64 `gorm:"type:numeric;column:apr"`
	Institution string   `gorm:"type:text"`
	Updated     string   `gorm:"type:text"`
	SourceURL   string   `gorm:"type:text"`
	CreatedAt   time.Time
}

func (InterestRate) TableName() string { return "interest_rates" }

// QueryRecordRow is the persisted form of a closed performance record.
type QueryRecordRow struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	RecordID       string `gorm:"type:text;uniqueIndex"`
	Website        string `gorm:"type:text;index"`
	TaskType       string `gorm:"type:text"`
	Query          string `gorm:"type:text"`
	StartTime      time.Time
	EndTime        time.Time
	Success        bool
	ItemsExtracted int
	PartialSchema  bool
	ErrorMessage   string `gorm:"type:text"`
	CreatedAt      time.Time
}

func (QueryRecordRow) TableName() string { return "query_records" }
