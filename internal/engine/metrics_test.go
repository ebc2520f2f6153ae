package engine_test

import (
	"github.com/consorcio/backend/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
)

// counterValue returns the sum of all series of the counter.
func (suite *TestSuiteStandard) counterValue(reg *prometheus.Registry, name string) float64 {
	families, err := reg.Gather()
	suite.Require().Nil(err)

	sum := 0.0
	for _, f := range families {
		if f.GetName() != name {
			continue
		}

		for _, m := range f.GetMetric() {
			sum += m.GetCounter().GetValue()
		}
	}

	return sum
}

func (suite *TestSuiteStandard) TestMetrics() {
	reg := prometheus.NewRegistry()
	reg.MustRegister(suite.engine.Metrics().Collectors()...)

	consortium := suite.createTestConsortium(models.Consortium{TermMonths: 3, TotalQuotas: 4})
	manual := suite.join(consortium, "Ana", "1")
	_ = suite.join(consortium, "Bruno", "1")
	_ = suite.join(consortium, "Carla", "1")
	_ = suite.join(consortium, "Davi", "0.5")

	created, err := suite.engine.Ledger.GenerateSchedule(suite.ctx(), consortium.ID)
	suite.Require().Nil(err)
	suite.Assert().Equal(12.0, suite.counterValue(reg, "consortium_obligations_generated_total"))

	_, err = suite.engine.Ledger.RecordPayment(suite.ctx(), created[0].ID, decimal.NewFromInt(1))
	suite.Require().Nil(err)
	suite.Assert().Equal(1.0, suite.counterValue(reg, "consortium_payments_recorded_total"))

	count, err := suite.engine.Sweeper.SweepOverdue(suite.ctx())
	suite.Require().Nil(err)
	suite.Assert().Equal(float64(count), suite.counterValue(reg, "consortium_obligations_overdue_total"))
	series, err := testutil.GatherAndCount(reg, "consortium_sweep_duration_seconds")
	suite.Require().Nil(err)
	suite.Assert().Equal(1, series)

	_, err = suite.allocate(consortium, 1, manual)
	suite.Require().Nil(err)

	result, err := suite.engine.Allocator.AutoAllocate(suite.ctx(), consortium.ID)
	suite.Require().Nil(err)
	suite.Assert().Equal(float64(len(result.Contemplations)+1), suite.counterValue(reg, "consortium_contemplations_created_total"))
	suite.Assert().Equal(1.0, suite.counterValue(reg, "consortium_contemplations_unplaced_total"))
}
