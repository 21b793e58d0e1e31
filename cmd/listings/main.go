package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/niksmo/prime-house/internal/adapter/httphandler"
	"github.com/niksmo/prime-house/internal/adapter/liveclient"
	"github.com/niksmo/prime-house/internal/adapter/terminal"
	"github.com/niksmo/prime-house/internal/core/domain"
	"github.com/niksmo/prime-house/internal/core/store"
	"github.com/niksmo/prime-house/pkg/sigctx"
	"github.com/spf13/cobra"
)

const (
	defaultLiveURL = "ws://localhost:8080/v1/properties/live"
	defaultAPIURL  = "http://localhost:8080"
	listTimeout    = 10 * time.Second
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "listings",
	Short: "Prime House listings in the terminal",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogger()
	},
}

// watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the live listings feed",
	Long: "Follow the live listings feed. Commands are read from stdin:\n" +
		"  type <all|sale|rent>\n  search <text>\n  clear\n  quit",
	RunE: func(cmd *cobra.Command, args []string) error {
		server, _ := cmd.Flags().GetString("server")
		propertyType, _ := cmd.Flags().GetString("type")
		search, _ := cmd.Flags().GetString("search")

		ctx, stop := sigctx.NotifyContext()
		defer stop()

		st := store.New()
		st.SetFilter(propertyType)
		st.SetSearch(search)

		session := terminal.NewSession(st, terminal.NewRenderer(os.Stdout))
		session.Run(ctx, liveclient.NewSubscriber(server), os.Stdin)
		return nil
	},
}

// list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the listings once",
	RunE: func(cmd *cobra.Command, args []string) error {
		server, _ := cmd.Flags().GetString("server")
		propertyType, _ := cmd.Flags().GetString("type")
		search, _ := cmd.Flags().GetString("search")

		ctx, cancel := context.WithTimeout(cmd.Context(), listTimeout)
		defer cancel()

		resp, err := fetchProperties(ctx, server, propertyType, search)
		if err != nil {
			return fmt.Errorf("fetching properties: %w", err)
		}

		return terminal.NewRenderer(os.Stdout).Render(terminal.View{
			Loading:    resp.Loading,
			Filter:     domain.ParseFilter(propertyType),
			Search:     search,
			Properties: httphandler.PropertiesToDomain(resp.Data),
		})
	},
}

func fetchProperties(
	ctx context.Context, server, propertyType, search string,
) (httphandler.PropertiesResponse, error) {
	var out httphandler.PropertiesResponse

	q := url.Values{}
	if propertyType != "" {
		q.Set("type", propertyType)
	}
	if search != "" {
		q.Set("q", search)
	}
	target := strings.TrimRight(server, "/") + "/v1/properties"
	if len(q) != 0 {
		target += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return out, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decoding response: %w", err)
	}
	return out, nil
}

// initLogger keeps logs on stderr and quiet, stdout belongs to the view.
func initLogger() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelWarn,
		TimeFormat: time.Kitchen,
	})))
}

func init() {
	watchCmd.Flags().StringP("server", "s", defaultLiveURL, "live feed websocket URL")
	listCmd.Flags().StringP("server", "s", defaultAPIURL, "API base URL")

	for _, cmd := range []*cobra.Command{watchCmd, listCmd} {
		cmd.Flags().StringP("type", "t", string(domain.FilterAll), "all, sale or rent")
		cmd.Flags().StringP("search", "q", "", "title or location text")
	}

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(listCmd)
}
