package rental_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/erazemk/izposoja/internal/db"
	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/rental"
	"github.com/erazemk/izposoja/internal/store"
)

var origin = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

type reservationContext struct {
	manager   *rental.Manager
	customers map[string]*model.Customer
	equipment map[string]*model.Equipment
	last      *model.Rental
	err       error
	closeDB   func() error
}

func (c *reservationContext) reset() error {
	if c.closeDB != nil {
		c.closeDB()
	}
	database, err := db.Open(":memory:")
	if err != nil {
		return err
	}
	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		return err
	}
	c.closeDB = database.Close
	c.manager = rental.NewManager(store.New(database))
	c.customers = map[string]*model.Customer{}
	c.equipment = map[string]*model.Equipment{}
	c.last = nil
	c.err = nil
	return nil
}

func (c *reservationContext) aCustomer(name string) error {
	cust, err := c.manager.AddCustomer(context.Background(), &model.Customer{Name: name})
	if err != nil {
		return err
	}
	c.customers[name] = cust
	return nil
}

func (c *reservationContext) equipmentWithUnits(name string, units int) error {
	e, err := c.manager.AddEquipment(context.Background(), &model.Equipment{
		Name:     name,
		Category: "Camping",
		Price:    decimal.NewFromInt(1000),
		Quantity: units,
	})
	if err != nil {
		return err
	}
	c.equipment[name] = e
	return nil
}

func (c *reservationContext) iBook(qty int, name string, from, to int) error {
	var customer *model.Customer
	for _, cust := range c.customers {
		customer = cust
	}
	if customer == nil {
		return errors.New("no customer defined")
	}

	r, err := c.manager.CreateRental(context.Background(), rental.CreateRentalRequest{
		CustomerID:  customer.ID,
		EquipmentID: c.equipment[name].ID,
		Quantity:    qty,
		Start:       origin.AddDate(0, 0, from),
		End:         origin.AddDate(0, 0, to),
	})
	c.err = err
	if err == nil {
		c.last = r
	}
	return nil
}

func (c *reservationContext) theBookingSucceeds() error {
	return c.err
}

func (c *reservationContext) theBookingIsRejectedAsUnavailable() error {
	var aerr *model.AvailabilityError
	if !errors.As(c.err, &aerr) {
		return fmt.Errorf("expected availability error, got %v", c.err)
	}
	return nil
}

func (c *reservationContext) iCompleteTheLastBooking() error {
	_, c.err = c.manager.CompleteRental(context.Background(), c.last.ID, model.Completion{})
	return nil
}

func (c *reservationContext) iCancelTheLastBooking(reason string) error {
	_, c.err = c.manager.CancelRental(context.Background(), c.last.ID, reason)
	return c.err
}

func (c *reservationContext) theOperationFailsWithAnInvalidState() error {
	var serr *model.InvalidStateError
	if !errors.As(c.err, &serr) {
		return fmt.Errorf("expected invalid state error, got %v", c.err)
	}
	return nil
}

func (c *reservationContext) unitsAvailable(name string, want int) error {
	e, err := c.manager.GetEquipment(context.Background(), c.equipment[name].ID)
	if err != nil {
		return err
	}
	if e.AvailableQuantity != want {
		return fmt.Errorf("expected %d available, got %d", want, e.AvailableQuantity)
	}
	if e.AvailableQuantity < 0 || e.AvailableQuantity > e.Quantity {
		return fmt.Errorf("available %d outside [0, %d]", e.AvailableQuantity, e.Quantity)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	rc := &reservationContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		return ctx, rc.reset()
	})
	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if rc.closeDB != nil {
			rc.closeDB()
			rc.closeDB = nil
		}
		return ctx, nil
	})

	ctx.Step(`^a customer "([^"]*)"$`, rc.aCustomer)
	ctx.Step(`^equipment "([^"]*)" with (\d+) units$`, rc.equipmentWithUnits)
	ctx.Step(`^I book (\d+) "([^"]*)" from day (\d+) to day (\d+)$`, rc.iBook)
	ctx.Step(`^the booking succeeds$`, rc.theBookingSucceeds)
	ctx.Step(`^the booking is rejected as unavailable$`, rc.theBookingIsRejectedAsUnavailable)
	ctx.Step(`^I complete the last booking(?: again)?$`, rc.iCompleteTheLastBooking)
	ctx.Step(`^I cancel the last booking because "([^"]*)"$`, rc.iCancelTheLastBooking)
	ctx.Step(`^the operation fails with an invalid state$`, rc.theOperationFailsWithAnInvalidState)
	ctx.Step(`^"([^"]*)" has (\d+) units? available$`, rc.unitsAvailable)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"../../features/reservations.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
