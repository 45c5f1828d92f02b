package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	contractx "github.com/tanpawarit/Chative-Travel-Intake/agent/contract"
	statex "github.com/tanpawarit/Chative-Travel-Intake/agent/state"
)

var (
	_ contractx.FulfillmentLedger = (*BunLedger)(nil)
	_ contractx.FulfillmentLedger = NoopLedger{}
)

type fulfillment struct {
	bun.BaseModel `bun:"table:fulfillments,alias:f"`

	ID            int64                    `bun:"id,pk,autoincrement"`
	SessionID     string                   `bun:"session_id,notnull"`
	Origin        string                   `bun:"origin,notnull"`
	Destination   string                   `bun:"destination,notnull"`
	DepartureDate string                   `bun:"departure_date,notnull"`
	UserEmail     string                   `bun:"user_email,notnull"`
	Request       statex.TravelRequest     `bun:"request,type:jsonb,notnull"`
	Package       *contractx.TravelPackage `bun:"package,type:jsonb"`
	Found         bool                     `bun:"found,notnull"`
	TotalPrice    float64                  `bun:"total_price,nullzero"`
	EmailSent     bool                     `bun:"email_sent,notnull"`
	CompletedAt   time.Time                `bun:"completed_at,notnull"`
}

func newFulfillment(rec contractx.FulfillmentRecord) *fulfillment {
	row := &fulfillment{
		SessionID:   rec.SessionID,
		Origin:      rec.Request.OriginValue(),
		Destination: rec.Request.DestinationValue(),
		UserEmail:   rec.Request.UserEmailValue(),
		Request:     rec.Request.Clone(),
		Package:     rec.Package,
		Found:       rec.Package != nil,
		EmailSent:   rec.EmailSent,
		CompletedAt: rec.CompletedAt.UTC(),
	}
	if rec.Request.DepartureDate != nil {
		row.DepartureDate = rec.Request.DepartureDate.String()
	}
	if rec.Package != nil {
		row.TotalPrice = rec.Package.TotalPrice
	}
	return row
}

// BunLedger writes fulfillments to Postgres.
type BunLedger struct {
	db bun.IDB
}

func NewBunLedger(db bun.IDB) (*BunLedger, error) {
	if db == nil {
		return nil, errors.New("bun db is required")
	}
	return &BunLedger{db: db}, nil
}

// Init creates the fulfillments table when it does not exist yet.
func (l *BunLedger) Init(ctx context.Context) error {
	if _, err := l.db.NewCreateTable().Model((*fulfillment)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create fulfillments table: %w", err)
	}
	return nil
}

func (l *BunLedger) Record(ctx context.Context, rec contractx.FulfillmentRecord) error {
	if _, err := l.db.NewInsert().Model(newFulfillment(rec)).Exec(ctx); err != nil {
		return fmt.Errorf("insert fulfillment: %w", err)
	}
	return nil
}

// NoopLedger discards records. Used when no database is configured.
type NoopLedger struct{}

func (NoopLedger) Record(context.Context, contractx.FulfillmentRecord) error {
	return nil
}
