package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/pino/internal/config"
	"github.com/jmylchreest/pino/internal/session"
	"github.com/jmylchreest/pino/internal/transport"
)

// Status describes the popup of one session.
type Status struct {
	Session   string     `json:"session" yaml:"session"`
	Transport string     `json:"transport" yaml:"transport"`
	Endpoint  string     `json:"endpoint" yaml:"endpoint"`
	Running   bool       `json:"running" yaml:"running"`
	Since     *time.Time `json:"since,omitempty" yaml:"since,omitempty"`
}

func newStatusCmd(root *rootOptions) *cobra.Command {
	var output, kind string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether a popup is on screen",
		Long: `Show whether a session currently has a popup on screen, the endpoint it
owns and how long it has been open.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := session.Parse(root.session)
			if err != nil {
				return err
			}
			if kind == "" {
				kind = string(transport.KindSocket)
				if cfg, err := loadStatusConfig(root.configPath); err == nil {
					kind = cfg.Behavior.Transport
				}
			}
			t, err := transport.New(transport.Kind(kind), sess, logger)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
			defer cancel()
			status, err := probeStatus(ctx, t, sess, transport.Kind(kind))
			if err != nil {
				return err
			}
			return writeStatus(cmd.OutOrStdout(), status, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json, yaml)")
	cmd.Flags().StringVar(&kind, "transport", "", "Transport to probe (default behavior.transport)")
	return cmd
}

// loadStatusConfig reads the config without creating a default one.
func loadStatusConfig(path string) (*config.Config, error) {
	if path == "" {
		var err error
		if path, err = config.Path(); err != nil {
			return nil, err
		}
	}
	return config.Load(config.ExpandPath(path))
}

// probeStatus checks the endpoint owner of a session.
func probeStatus(ctx context.Context, t transport.Transport, sess session.Session, kind transport.Kind) (Status, error) {
	status := Status{
		Session:   sess.Name(),
		Transport: string(kind),
		Endpoint:  t.Endpoint(),
	}

	err := transport.Probe(ctx, t)
	switch {
	case err == nil:
		status.Running = true
	case errors.Is(err, transport.ErrNoOwner):
		return status, nil
	default:
		return status, err
	}

	if info, err := os.Stat(t.Endpoint()); err == nil {
		since := info.ModTime()
		status.Since = &since
	}
	return status, nil
}

var (
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
)

// writeStatus renders status in the requested format.
func writeStatus(w io.Writer, status Status, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	case "yaml":
		data, err := yaml.Marshal(status)
		if err != nil {
			return fmt.Errorf("failed to marshal yaml: %w", err)
		}
		_, err = w.Write(data)
		return err
	case "text", "":
		state := idleStyle.Render("idle")
		if status.Running {
			state = runningStyle.Render("showing")
			if status.Since != nil {
				state += labelStyle.Render(" since " + humanize.Time(*status.Since))
			}
		}
		_, err := fmt.Fprintf(w, "%s %s\n%s %s\n%s %s\n%s %s\n",
			labelStyle.Render("session:  "), status.Session,
			labelStyle.Render("state:    "), state,
			labelStyle.Render("transport:"), status.Transport,
			labelStyle.Render("endpoint: "), status.Endpoint,
		)
		return err
	default:
		return fmt.Errorf("unknown output format %q, must be one of: text, json, yaml", format)
	}
}
