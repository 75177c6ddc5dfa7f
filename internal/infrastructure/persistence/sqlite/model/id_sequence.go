package model

type IDSequence struct {
	Name  string `gorm:"column:name;type:text;primaryKey"`
	Year  int    `gorm:"column:year;primaryKey;autoIncrement:false"`
	Value int64  `gorm:"column:value;not null"`
}

func (IDSequence) TableName() string {
	return "id_sequences"
}
