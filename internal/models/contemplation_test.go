package models_test

import (
	"github.com/consorcio/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func (suite *TestSuiteStandard) TestContemplationBeforeSave() {
	tests := []struct {
		name          string
		contemplation models.Contemplation
		err           error
	}{
		{"Defaults to automatic", models.Contemplation{Month: 1}, nil},
		{"Bid", models.Contemplation{Month: 3, Type: models.ContemplationBid}, nil},
		{"Month zero", models.Contemplation{Month: 0}, models.ErrContemplationMonthOutOfRange},
		{"Month too large", models.Contemplation{Month: 121}, models.ErrContemplationMonthOutOfRange},
		{"Invalid type", models.Contemplation{Month: 1, Type: "lottery"}, models.ErrContemplationTypeInvalid},
	}

	for _, tt := range tests {
		err := tt.contemplation.BeforeSave(&gorm.DB{})
		assert.Equal(suite.T(), tt.err, err, tt.name)
	}

	c := models.Contemplation{Month: 1}
	_ = c.BeforeSave(&gorm.DB{})
	assert.Equal(suite.T(), models.ContemplationAutomatic, c.Type)
}
