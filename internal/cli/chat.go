package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/app"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/model"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/widget"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Padding(0, 1).
			MarginBottom(1)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	citationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

const chatHelp = `/new [title]   start a conversation
/list          list conversations
/switch <id>   select a conversation
/regenerate    answer the last question again
/quit          leave`

func newChatCmd(opts *rootOptions) *cobra.Command {
	var (
		agentID   string
		mode      string
		sessionID string
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with an agent from the terminal",
		Long: `Open a widget instance in the terminal and stream answers as they arrive.

Widget mode (the default) reuses the agent's persistent session, so a
sqlite or redis backend brings back earlier conversations.

` + chatHelp,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			opts.setupLogging(cfg, cmd.ErrOrStderr())

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			adapter, err := app.OpenStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer adapter.Close()

			manager := app.NewManager(cfg, adapter)
			defer manager.Close(context.Background())

			inst, err := manager.Init(ctx, widget.Config{
				AgentID:          agentID,
				DisplayMode:      widget.DisplayMode(mode),
				SessionID:        sessionID,
				DisableIsolation: sessionID != "",
			})
			if err != nil {
				return err
			}
			return runChat(ctx, inst, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&agentID, "agent", "a", "", "Agent (project) id")
	cmd.Flags().StringVarP(&mode, "mode", "m", string(widget.ModeWidget), "Display mode: embedded, floating or widget")
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Join a shared session id")
	_ = cmd.MarkFlagRequired("agent")
	return cmd
}

// chatSession renders one instance to a terminal.
type chatSession struct {
	inst *widget.Instance
	out  io.Writer
}

// runChat reads lines from in until EOF or /quit. Plain lines are sent as
// messages; lines starting with "/" are commands.
func runChat(ctx context.Context, inst *widget.Instance, in io.Reader, out io.Writer) error {
	c := &chatSession{inst: inst, out: out}
	c.printHeader()
	if conv, ok := inst.CurrentConversation(); ok {
		c.printHistory(conv)
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, userStyle.Render("you> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			c.turn(ctx, func(ctx context.Context) (model.ChatMessage, error) {
				return inst.SendMessage(ctx, line, nil)
			})
			continue
		}
		if quit := c.command(ctx, line); quit {
			return nil
		}
	}
}

func (c *chatSession) printHeader() {
	title := "kasmchat"
	if s, ok := c.inst.AgentSettings(); ok && s.Name != "" {
		title += " / " + s.Name
		if !s.IsActive {
			title += " (inactive)"
		}
	}
	fmt.Fprintln(c.out, headerStyle.Render(title))
	fmt.Fprintln(c.out, metaStyle.Render("session "+c.inst.SessionID()+"  type /help for commands"))
}

func (c *chatSession) printHistory(conv model.Conversation) {
	fmt.Fprintln(c.out, metaStyle.Render("conversation "+conv.ID+" "+conv.Title))
	for _, m := range c.inst.Messages(conv.ID) {
		if m.Role == model.RoleUser {
			fmt.Fprintln(c.out, userStyle.Render("you")+" "+m.Content)
			continue
		}
		fmt.Fprintln(c.out, assistantStyle.Render("assistant")+" "+m.Content)
		c.printCitations(m.Citations)
	}
}

func (c *chatSession) command(ctx context.Context, line string) (quit bool) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(c.out, metaStyle.Render(chatHelp))
	case "/new":
		conv, err := c.inst.CreateConversation(ctx, arg)
		if err != nil {
			c.printError(err)
			return false
		}
		fmt.Fprintln(c.out, metaStyle.Render("started "+conv.ID))
	case "/list":
		current, _ := c.inst.CurrentConversation()
		for _, conv := range c.inst.GetConversations(ctx) {
			marker := " "
			if conv.ID == current.ID {
				marker = "*"
			}
			fmt.Fprintf(c.out, "%s %s %s\n", marker, conv.ID, metaStyle.Render(conv.Title))
		}
	case "/switch":
		switched, err := c.inst.SwitchConversation(ctx, arg)
		if !switched {
			c.printError(fmt.Errorf("no conversation %q", arg))
			return false
		}
		if err != nil {
			c.printError(err)
		}
		if conv, ok := c.inst.CurrentConversation(); ok {
			c.printHistory(conv)
		}
	case "/regenerate":
		c.turn(ctx, c.inst.RegenerateLastResponse)
	default:
		c.printError(fmt.Errorf("unknown command %s", name))
	}
	return false
}

// turn runs one send and prints assistant content as it streams in. Ctrl-C
// stops the response and keeps what arrived.
func (c *chatSession) turn(ctx context.Context, run func(context.Context) (model.ChatMessage, error)) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	events, unsubscribe := c.inst.Subscribe()
	defer unsubscribe()

	type result struct {
		msg model.ChatMessage
		err error
	}
	done := make(chan result, 1)
	go func() {
		msg, err := run(ctx)
		done <- result{msg: msg, err: err}
	}()

	p := &streamPrinter{out: c.out}
	for {
		select {
		case e, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			p.observe(e)
		case res := <-done:
		drain:
			for events != nil {
				select {
				case e, ok := <-events:
					if !ok {
						break drain
					}
					p.observe(e)
				default:
					break drain
				}
			}
			c.finish(p, res.msg, res.err)
			return
		}
	}
}

func (c *chatSession) finish(p *streamPrinter, msg model.ChatMessage, err error) {
	switch {
	case errors.Is(err, context.Canceled):
		p.complete(msg.Content)
		fmt.Fprintln(c.out, metaStyle.Render("(response stopped)"))
	case err != nil:
		p.endLine()
		c.printError(err)
	case msg.Status == model.StatusError:
		p.endLine()
		fmt.Fprintln(c.out, errorStyle.Render(msg.Content))
	default:
		p.complete(msg.Content)
		c.printCitations(msg.Citations)
	}
}

func (c *chatSession) printCitations(citations []model.Citation) {
	for _, ct := range citations {
		line := fmt.Sprintf("[%d] %s", ct.Index, ct.Title)
		if ct.URL != "" {
			line += " " + ct.URL
		}
		fmt.Fprintln(c.out, citationStyle.Render(line))
	}
}

func (c *chatSession) printError(err error) {
	fmt.Fprintln(c.out, errorStyle.Render("error: "+err.Error()))
}

// streamPrinter writes the growing assistant message as deltas.
type streamPrinter struct {
	out     io.Writer
	started bool
	printed string
}

func (p *streamPrinter) observe(e widget.Event) {
	if e.Type != widget.EventMessage || e.Message == nil {
		return
	}
	m := e.Message
	if m.Role != model.RoleAssistant || m.Status != model.StatusSending || m.Content == "" {
		return
	}
	p.write(m.Content)
}

func (p *streamPrinter) write(content string) {
	if !p.started {
		fmt.Fprint(p.out, assistantStyle.Render("assistant")+" ")
		p.started = true
	}
	if rest, ok := strings.CutPrefix(content, p.printed); ok {
		fmt.Fprint(p.out, rest)
	} else {
		// The fallback path replaces the text wholesale.
		fmt.Fprint(p.out, "\n"+content)
	}
	p.printed = content
}

// complete prints whatever of final has not been shown yet and ends the line.
func (p *streamPrinter) complete(final string) {
	if final != p.printed {
		p.write(final)
	}
	p.endLine()
}

func (p *streamPrinter) endLine() {
	if p.started {
		fmt.Fprintln(p.out)
		p.started = false
	}
}
