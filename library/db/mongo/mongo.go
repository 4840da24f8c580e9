// Package mongo wraps the MongoDB client used by the news service.
package mongo

import (
	"context"
	"net/url"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Laisky/multilingual-news/library/log"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultHeartbeat   = 10 * time.Second
	healthCheckPeriod  = 30 * time.Second
	healthCheckTimeout = 5 * time.Second
)

// DB is the database handle shared by every dao.
type DB interface {
	Close(ctx context.Context) error
	GetCol(colName string) *mongo.Collection
	CurrentDB() *mongo.Database
	Client() *mongo.Client
}

// DialInfo defines the MongoDB connection information.
//
// URI takes precedence over Addr/User/Pwd when set.
type DialInfo struct {
	URI,
	Addr,
	DBName,
	User,
	Pwd,
	AuthDB string
}

var (
	connectMongo = func(ctx context.Context, opts *options.ClientOptions) (*mongo.Client, error) {
		return mongo.Connect(ctx, opts)
	}
	pingMongo = func(ctx context.Context, cli *mongo.Client) error {
		return cli.Ping(ctx, readpref.Primary())
	}
	disconnectMongo = func(ctx context.Context, cli *mongo.Client) error {
		return cli.Disconnect(ctx)
	}
)

type db struct {
	cli      *mongo.Client
	dbName   string
	stopPing context.CancelFunc
}

// BuildURI returns the connection string for dialInfo.
func BuildURI(dialInfo DialInfo) string {
	if dialInfo.URI != "" {
		return dialInfo.URI
	}

	uri := &url.URL{
		Scheme: "mongodb",
		Host:   dialInfo.Addr,
		Path:   "/" + dialInfo.DBName,
	}
	if dialInfo.User != "" || dialInfo.Pwd != "" {
		uri.User = url.UserPassword(dialInfo.User, dialInfo.Pwd)
	}
	if dialInfo.AuthDB != "" {
		query := url.Values{}
		query.Set("authSource", dialInfo.AuthDB)
		uri.RawQuery = query.Encode()
	}

	return uri.String()
}

// NewDB connects to MongoDB and verifies the connection with a ping.
func NewDB(ctx context.Context, dialInfo DialInfo) (DB, error) {
	if dialInfo.DBName == "" {
		return nil, errors.New("db name is empty")
	}

	log.Logger.Info("try to connect to mongodb",
		zap.String("addr", dialInfo.Addr),
		zap.Bool("uri", dialInfo.URI != ""),
		zap.String("db", dialInfo.DBName),
	)

	dialCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(BuildURI(dialInfo)).
		SetConnectTimeout(defaultTimeout).
		SetServerSelectionTimeout(defaultTimeout).
		SetHeartbeatInterval(defaultHeartbeat).
		SetRetryReads(true).
		SetRetryWrites(true).
		SetMaxPoolSize(100).
		SetMaxConnIdleTime(5 * time.Minute)

	cli, err := connectMongo(dialCtx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connect db")
	}

	if err = pingMongo(dialCtx, cli); err != nil {
		_ = disconnectMongo(context.Background(), cli)
		return nil, errors.Wrap(err, "ping db")
	}

	pingCtx, stop := context.WithCancel(context.Background())
	d := &db{
		cli:      cli,
		dbName:   dialInfo.DBName,
		stopPing: stop,
	}
	go d.runHealthCheck(pingCtx)

	return d, nil
}

// runHealthCheck only logs; the driver recovers connections by itself.
func (d *db) runHealthCheck(ctx context.Context) {
	ticker := time.NewTicker(healthCheckPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
		err := pingMongo(pctx, d.cli)
		cancel()
		if err != nil && ctx.Err() == nil {
			log.Logger.Warn("mongodb ping failed (driver will auto-recover)",
				zap.Error(err), zap.String("db", d.dbName))
		}
	}
}

// Client returns the underlying driver client.
func (d *db) Client() *mongo.Client {
	return d.cli
}

// CurrentDB returns the configured database.
func (d *db) CurrentDB() *mongo.Database {
	return d.cli.Database(d.dbName)
}

// GetCol returns a collection handle by name.
func (d *db) GetCol(colName string) *mongo.Collection {
	return d.CurrentDB().Collection(colName)
}

// Close stops the health check and disconnects.
func (d *db) Close(ctx context.Context) error {
	if d.stopPing != nil {
		d.stopPing()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	closeCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return disconnectMongo(closeCtx, d.cli)
}

// Wrap adapts an existing database handle into DB, tests use it with mtest.
func Wrap(database *mongo.Database) DB {
	return &db{
		cli:    database.Client(),
		dbName: database.Name(),
	}
}
