// Package console implements the interactive shell that drives the library
// service: a line-oriented command loop bound to one login session.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/library-keeper/internal/errs"
	"github.com/and161185/library-keeper/internal/metrics"
	"github.com/and161185/library-keeper/internal/model"
	"github.com/and161185/library-keeper/internal/service"
)

// SecretReader prompts for and reads a secret.
type SecretReader func(prompt string) (string, error)

type command struct {
	usage string
	help  string
	run   Handler
}

// Console reads commands from in and writes results to out.
type Console struct {
	lib     service.LibraryService
	auth    service.AuthService
	metrics *metrics.Collector
	log     *zap.Logger

	in     *bufio.Scanner
	out    io.Writer
	secret SecretReader
	client string
	now    func() time.Time

	session  *model.Person
	commands map[string]command
	order    []string
}

// Option customises Console.
type Option func(*Console)

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Console) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics enables the stats command.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Console) { c.metrics = m }
}

// WithSecretReader replaces line input for secrets, e.g. with a masked terminal read.
func WithSecretReader(r SecretReader) Option {
	return func(c *Console) { c.secret = r }
}

// WithClient sets the client identifier used for login rate limiting.
func WithClient(id string) Option {
	return func(c *Console) {
		if id != "" {
			c.client = id
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Console) {
		if now != nil {
			c.now = now
		}
	}
}

// New constructs a Console over the library and auth services.
func New(lib service.LibraryService, auth service.AuthService, in io.Reader, out io.Writer, opts ...Option) *Console {
	c := &Console{
		lib:    lib,
		auth:   auth,
		log:    zap.NewNop(),
		in:     bufio.NewScanner(in),
		out:    out,
		client: "console",
		now:    time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	c.register()
	return c
}

// Run reads commands until exit, end of input or ctx cancellation.
func (c *Console) Run(ctx context.Context) error {
	c.printf("Library console. Type 'help' for the list of commands.\n")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.printf("\n%s> ", c.promptName())
		if !c.in.Scan() {
			return c.in.Err()
		}
		fields := strings.Fields(c.in.Text())
		if len(fields) == 0 {
			continue
		}
		name := strings.ToLower(fields[0])
		if name == "exit" || name == "quit" {
			c.printf("Goodbye!\n")
			return nil
		}
		if err := c.Exec(ctx, name, fields[1:]); err != nil {
			c.printf("Error: %s\n", Message(err))
		}
	}
}

// Exec runs one command with the current session.
func (c *Console) Exec(ctx context.Context, name string, args []string) error {
	cmd, ok := c.commands[name]
	if !ok {
		return fmt.Errorf("%w %q", errUnknownCommand, name)
	}
	if err := c.refreshSession(ctx); err != nil {
		return err
	}
	if c.session != nil {
		ctx = WithPerson(ctx, c.session)
	}
	return cmd.run(ctx, Request{Command: name, Args: args})
}

// Session returns the logged-in person, if any.
func (c *Console) Session() (*model.Person, bool) {
	return c.session, c.session != nil
}

// refreshSession reloads the session person so role and expiry changes apply
// immediately; a deregistered person is logged out.
func (c *Console) refreshSession(ctx context.Context) error {
	if c.session == nil {
		return nil
	}
	p, err := c.lib.GetPerson(ctx, c.session.ID)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		c.printf("Your account no longer exists, logged out.\n")
		c.session = nil
		return nil
	case err != nil:
		return err
	}
	c.session = p
	return nil
}

func (c *Console) promptName() string {
	if c.session == nil {
		return "library"
	}
	return c.session.Email
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) ask(prompt string) (string, error) {
	c.printf("%s: ", prompt)
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimSpace(c.in.Text()), nil
}

func (c *Console) askSecret(prompt string) (string, error) {
	if c.secret != nil {
		return c.secret(prompt + ": ")
	}
	return c.ask(prompt)
}

func (c *Console) askInt(prompt string) (int, error) {
	s, err := c.ask(prompt)
	if err != nil {
		return 0, err
	}
	return parseInt(prompt, s)
}

// arg returns req.Args[i] or asks for it.
func (c *Console) arg(req Request, i int, prompt string) (string, error) {
	if i < len(req.Args) {
		return req.Args[i], nil
	}
	return c.ask(prompt)
}

func (c *Console) argID(req Request, i int, prompt string) (uuid.UUID, error) {
	s, err := c.arg(req, i, prompt)
	if err != nil {
		return uuid.Nil, err
	}
	return uuidFrom(s)
}

func uuidFrom(s string) (uuid.UUID, error) {
	id, err := uuid.FromString(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad id %q", errs.ErrValidation, s)
	}
	return id, nil
}

func (c *Console) argInt(req Request, i int, prompt string) (int, error) {
	s, err := c.arg(req, i, prompt)
	if err != nil {
		return 0, err
	}
	return parseInt(prompt, s)
}

// resolvePerson accepts a person id or an email.
func (c *Console) resolvePerson(ctx context.Context, ref string) (*model.Person, error) {
	if id, err := uuid.FromString(ref); err == nil {
		return c.lib.GetPerson(ctx, id)
	}
	return c.lib.GetPersonByEmail(ctx, ref)
}

func (c *Console) itemTitle(ctx context.Context, id uuid.UUID) string {
	it, err := c.lib.FindItem(ctx, id)
	if err != nil {
		return id.String()
	}
	return it.Title
}

func parseInt(what, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number, got %q", errs.ErrValidation, strings.ToLower(what), s)
	}
	return n, nil
}

func day(t time.Time) string { return t.Format("2006-01-02") }

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
