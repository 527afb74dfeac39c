package bootstrap

import (
	"errors"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jt828/ollyllm-go/internal/repository"
	"github.com/jt828/ollyllm-go/pkg/circuitbreaker"
	cbImpl "github.com/jt828/ollyllm-go/pkg/circuitbreaker/implementation"
	"github.com/jt828/ollyllm-go/pkg/observability"
	obsImpl "github.com/jt828/ollyllm-go/pkg/observability/implementation"
	"github.com/jt828/ollyllm-go/pkg/retry"
	retryImpl "github.com/jt828/ollyllm-go/pkg/retry/implementation"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Database struct {
	DB                *gorm.DB
	CircuitBreaker    circuitbreaker.CircuitBreaker
	UnitOfWorkFactory repository.UnitOfWorkFactory
}

func InitializeDatabase(dsn string, meter observability.Meter) (*Database, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return NewDatabase(db, meter)
}

func NewDatabase(db *gorm.DB, meter observability.Meter) (*Database, error) {
	if err := db.Use(obsImpl.NewGormMetricsPlugin(meter)); err != nil {
		return nil, err
	}

	state := meter.Gauge("db_circuit_breaker_state", observability.MetricOpt{
		Help: "Database circuit breaker state: 0 closed, 1 half-open, 2 open.",
	})
	cb := cbImpl.NewCircuitBreaker("postgresql", circuitbreaker.WithStateChange(func(_, to circuitbreaker.State) {
		state.Set(float64(to))
	}))
	r := retryImpl.NewRetry(3,
		retry.WithInterval(100*time.Millisecond),
		retry.WithMaxInterval(time.Second),
		retry.WithRetryable(IsRetryableDbError),
	)

	return &Database{
		DB:                db,
		CircuitBreaker:    cb,
		UnitOfWorkFactory: repository.NewTransactionDbUnitOfWorkFactory(db, cb, r),
	}, nil
}

func IsRetryableDbError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001": // serialization_failure
			return true
		case "40P01": // deadlock_detected
			return true
		case "08006": // connection_failure
			return true
		case "08001": // sqlclient_unable_to_establish_sqlconnection
			return true
		case "08004": // sqlserver_rejected_establishment_of_sqlconnection
			return true
		}
	}

	var netErr *net.OpError
	return errors.As(err, &netErr)
}
