package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/ecogroup/ecgsite/db/sqldb"
	_ "github.com/go-sql-driver/mysql" // side-effect
)

const DBType = "mysql"

func init() {
	sqldb.RegisterFactory(DBType, func(conf *sqldb.Conf) (sqldb.Client, error) {
		return &Client{Conf: conf}, nil
	})
}

type Client struct {
	Handle // [Embedded] for Promoted Methods
	Conf   *sqldb.Conf
	dsn    string
}

// Ensure mysql.Client implements sqldb.Client interface
var _ sqldb.Client = (*Client)(nil)

func (c *Client) Init() error {
	var err error
	if c.Conf.DSN != "" {
		c.dsn = c.Conf.DSN
	} else {
		tz := c.Conf.TZ
		if tz == "" {
			tz = "UTC"
		}
		c.dsn = fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true&clientFoundRows=true&loc=%s&sql_mode=ANSI_QUOTES",
			c.Conf.User,
			c.Conf.PW,
			c.Conf.Host,
			c.Conf.Port,
			c.Conf.DB,
			url.QueryEscape(tz),
		)
	}
	if c.DB, err = sql.Open("mysql", c.dsn); err != nil {
		return err
	}
	c.DB.SetConnMaxLifetime(time.Minute * 3)
	c.DB.SetMaxOpenConns(c.Conf.MaxConnsOrDefault())
	c.DB.SetMaxIdleConns(c.Conf.MaxConnsOrDefault())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = c.Ping(ctx); err != nil {
		return fmt.Errorf("mysql ping failed: %w", err)
	}
	log.Println("[INFO] mysql client initialized")
	return nil
}

func (c *Client) DBType() string {
	return DBType
}

func (c *Client) GetConf() *sqldb.Conf {
	return c.Conf
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *Client) Close() error {
	if c.DB == nil {
		return nil
	}
	log.Println("[INFO] closing mysql client")
	if err := c.DB.Close(); err != nil {
		return err
	}
	log.Println("[INFO] mysql client closed")
	return nil
}

func (c *Client) BeginTx(ctx context.Context) (sqldb.Tx, error) {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx}, nil
}
