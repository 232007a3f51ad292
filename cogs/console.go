package cogs

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"ccasino/utils"
)

// Console plays the casino over a line-oriented terminal. Each line is
// "<name>: <command>"; a name seen for the first time enters the room.
type Console struct {
	in     io.Reader
	out    io.Writer
	admins map[int64]bool
	logger *log.Logger

	mutex  sync.Mutex
	ids    map[string]int64
	nextID int64
}

var _ utils.Messenger = (*Console)(nil)

// NewConsole creates a console transport. Member numbers are handed out
// from 1 in order of first appearance.
func NewConsole(in io.Reader, out io.Writer, admins []int64, logger *log.Logger) *Console {
	c := &Console{
		in:     in,
		out:    out,
		admins: make(map[int64]bool, len(admins)),
		logger: logger.WithPrefix("console"),
		ids:    make(map[string]int64),
		nextID: 1,
	}
	for _, id := range admins {
		c.admins[id] = true
	}
	return c
}

func (c *Console) write(format string, args ...interface{}) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	_, err := fmt.Fprintf(c.out, format, args...)
	return err
}

func (c *Console) Reply(ctx context.Context, to utils.Sender, text string) error {
	return c.write("[to %s] %s\n", to.Name, text)
}

func (c *Console) Whisper(ctx context.Context, to utils.Sender, text string) error {
	return c.write("[whisper to %s] %s\n", to.Name, text)
}

func (c *Console) Broadcast(ctx context.Context, text string) error {
	return c.write("%s\n", text)
}

// sender resolves a console name, reporting whether it is new
func (c *Console) sender(name string) (utils.Sender, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	key := strings.ToLower(name)
	id, ok := c.ids[key]
	if !ok {
		id = c.nextID
		c.nextID++
		c.ids[key] = id
	}
	return utils.Sender{ID: id, Name: name, Admin: c.admins[id]}, !ok
}

// Run reads commands until the input ends or ctx is cancelled
func (c *Console) Run(ctx context.Context, casino *Casino) error {
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errs <- scanner.Err()
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-errs
			}
			c.handle(ctx, casino, line)
		}
	}
}

func (c *Console) handle(ctx context.Context, casino *Casino, line string) {
	name, command, ok := strings.Cut(line, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		if strings.TrimSpace(line) != "" {
			_ = c.write("say <name>: <command>, e.g. alice: bet red 10\n")
		}
		return
	}

	sender, entered := c.sender(name)
	if entered {
		if err := casino.PlayerEntered(ctx, sender); err != nil {
			c.logger.Error("failed to greet player", "player", sender.ID, "err", err)
		}
	}
	casino.Handle(ctx, sender, command)
}
