package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

const (
	colUsers         = "users"
	colSettings      = "settings"
	colProfileImages = "profile_images"
	colEmailTokens   = "email_tokens"
)

type Store struct {
	Client *mongo.Client
	DB     *mongo.Database

	// TxTimeout bounds a whole transaction. A transaction that cannot commit in time is aborted.
	TxTimeout time.Duration

	users    *mongo.Collection
	settings *mongo.Collection
	images   *mongo.Collection
	tokens   *mongo.Collection
}

func NewStore(ctx context.Context, uri, dbname string) (*Store, error) {
	cli, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetRetryWrites(true).
		SetMaxPoolSize(50),
	)
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}
	db := cli.Database(dbname)
	return &Store{
		Client:    cli,
		DB:        db,
		TxTimeout: 10 * time.Second,
		users:     db.Collection(colUsers),
		settings:  db.Collection(colSettings),
		images:    db.Collection(colProfileImages),
		tokens:    db.Collection(colEmailTokens),
	}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

// EnsureIndexes creates the unique keys the registration transaction relies on.
// The unique email index is what makes concurrent signups with one identity collide.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_email"),
	}); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}
	if _, err := s.settings.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_user"),
	}); err != nil {
		return fmt.Errorf("settings indexes: %w", err)
	}
	if _, err := s.images.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_user"),
	}); err != nil {
		return fmt.Errorf("profile_images indexes: %w", err)
	}
	return s.EnsureEmailTokenIndexes(ctx)
}

// InTx runs fn inside one multi-document transaction with snapshot reads and majority writes.
// The transaction is committed only if fn returns nil; every other exit path, panics included,
// aborts it. Nothing is retried: transient errors are returned to the caller as they are.
func (s *Store) InTx(ctx context.Context, fn func(tx Tx) error) (err error) {
	sp, ctx := startSpan(ctx, "mongo.tx")
	defer func() { sp.Finish(tracer.WithError(err)) }()

	if s.TxTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.TxTimeout)
		defer cancel()
	}

	sess, err := s.Client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(context.WithoutCancel(ctx))

	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority()).
		SetReadPreference(readpref.Primary())

	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sess.StartTransaction(opts); err != nil {
			return fmt.Errorf("start transaction: %w", err)
		}
		committed := false
		defer func() {
			if !committed {
				abortCtx, cancel := context.WithTimeout(context.WithoutCancel(sc), 5*time.Second)
				defer cancel()
				_ = sess.AbortTransaction(abortCtx)
			}
		}()

		if err := fn(&mongoTx{sc: sc, s: s}); err != nil {
			return err
		}
		if err := sess.CommitTransaction(sc); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		committed = true
		return nil
	})
}

func startSpan(ctx context.Context, op string) (ddtrace.Span, context.Context) {
	return tracer.StartSpanFromContext(ctx, op, tracer.SpanType("mongodb"))
}

// IsDup reports a unique-index violation.
func IsDup(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicateKey) {
		return true
	}
	return mongo.IsDuplicateKeyError(err)
}

// IsWriteConflict reports a transaction that lost a race on the same document (code 112).
// The TransientTransactionError label alone is not enough: network errors and stepdowns carry it too.
func IsWriteConflict(err error) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorCode(112)
}

// IsDocumentValidation reports a server-side schema validation failure.
func IsDocumentValidation(err error) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorCode(121)
}
