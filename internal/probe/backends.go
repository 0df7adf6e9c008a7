package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/go-ldap/ldap/v3"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/eugenenazirov/weblate-settings/internal/settings"
)

// FromSettings builds the probes for every backend s points to.
func FromSettings(s *settings.Settings) []Probe {
	probes := []Probe{&Postgres{DB: s.Database}}

	cache := s.DefaultCache()
	switch {
	case cache.IsMemcached():
		probes = append(probes, &Memcached{Label: "cache", Addr: cache.Location})
	case cache.IsRedis():
		probes = append(probes, &Redis{Label: "cache", URL: cache.Location})
	}
	if broker := s.Celery.BrokerURL; strings.HasPrefix(broker, "redis://") && broker != cache.Location {
		probes = append(probes, &Redis{Label: "broker", URL: broker})
	}

	if s.Auth.LDAP != nil && s.Auth.LDAP.ServerURI != "" {
		probes = append(probes, &LDAP{URI: s.Auth.LDAP.ServerURI})
	}

	probes = append(probes, &SMTP{
		Host:   s.Email.Host,
		Port:   s.Email.Port,
		UseSSL: s.Email.UseSSL,
		UseTLS: s.Email.UseTLS && !s.Email.UseSSL,
	})

	if h, ok := s.Logging.Handlers["syslog"]; ok && h.Address != "" {
		probes = append(probes, &Syslog{Address: h.Address})
	}
	return probes
}

// Postgres connects with pgx and pings the server.
type Postgres struct {
	DB settings.Database
}

func (p *Postgres) Name() string { return "database" }

func (p *Postgres) Target() string {
	return fmt.Sprintf("postgres://%s@%s/%s", p.DB.User, net.JoinHostPort(p.DB.Host, p.DB.Port), p.DB.Name)
}

// ConnString returns the pgx connection URL, password included.
func (p *Postgres) ConnString() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(p.DB.User, p.DB.Password),
		Host:   net.JoinHostPort(p.DB.Host, p.DB.Port),
		Path:   "/" + p.DB.Name,
	}
	return u.String()
}

func (p *Postgres) Check(ctx context.Context) error {
	cfg, err := pgx.ParseConfig(p.ConnString())
	if err != nil {
		return fmt.Errorf("parse connection string: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		cfg.ConnectTimeout = time.Until(deadline)
	}
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Redis pings a redis:// URL.
type Redis struct {
	Label string
	URL   string
}

func (r *Redis) Name() string   { return r.Label }
func (r *Redis) Target() string { return withoutUserinfo(r.URL) }

func (r *Redis) Check(ctx context.Context) error {
	opts, err := redis.ParseURL(r.URL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	opts.MaxRetries = -1
	client := redis.NewClient(opts)
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Memcached sends a version request.
type Memcached struct {
	Label string
	Addr  string
}

func (m *Memcached) Name() string   { return m.Label }
func (m *Memcached) Target() string { return m.Addr }

func (m *Memcached) Check(ctx context.Context) error {
	client := memcache.New(m.Addr)
	if deadline, ok := ctx.Deadline(); ok {
		client.Timeout = time.Until(deadline)
	}

	errc := make(chan error, 1)
	go func() { errc <- client.Ping() }()
	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("memcached ping: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LDAP dials the directory server.
type LDAP struct {
	URI string
}

func (l *LDAP) Name() string   { return "ldap" }
func (l *LDAP) Target() string { return l.URI }

func (l *LDAP) Check(ctx context.Context) error {
	dialer := &net.Dialer{}
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}
	conn, err := ldap.DialURL(l.URI, ldap.DialWithDialer(dialer))
	if err != nil {
		return fmt.Errorf("ldap dial: %w", err)
	}
	defer conn.Close()
	return nil
}

// SMTP greets the mail relay and quits. UseTLS upgrades the session with
// STARTTLS first, UseSSL dials TLS directly.
type SMTP struct {
	Host   string
	Port   int
	UseSSL bool
	UseTLS bool
}

func (s *SMTP) Name() string   { return "smtp" }
func (s *SMTP) Target() string { return net.JoinHostPort(s.Host, strconv.Itoa(s.Port)) }

func (s *SMTP) Check(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", s.Target())
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if s.UseSSL {
		tlsConn := tls.Client(conn, &tls.Config{ServerName: s.Host})
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			_ = conn.Close()
			return fmt.Errorf("smtp tls: %w", err)
		}
		conn = tlsConn
	}

	client, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp greeting: %w", err)
	}
	defer client.Close()

	if err := client.Hello("localhost"); err != nil {
		return fmt.Errorf("smtp hello: %w", err)
	}
	if s.UseTLS {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			return fmt.Errorf("smtp starttls: not offered by %s", s.Target())
		}
		if err := client.StartTLS(&tls.Config{ServerName: s.Host}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if err := client.Quit(); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("smtp quit: %w", err)
	}
	return nil
}

// withoutUserinfo drops credentials from a backend URL.
func withoutUserinfo(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid url"
	}
	u.User = nil
	return u.String()
}

// Syslog checks the local syslog socket.
type Syslog struct {
	Address string
}

func (s *Syslog) Name() string   { return "syslog" }
func (s *Syslog) Target() string { return s.Address }

func (s *Syslog) Check(context.Context) error {
	if !settings.SyslogAvailable(s.Address) {
		return fmt.Errorf("no syslog daemon at %s", s.Address)
	}
	return nil
}
