// gatehousectl is an HTTP admin client for a running gatehouse instance:
// login, API token and session management against the control API.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL      string
	APIToken     string // Authorization: Bearer
	SessionToken string // Authorization: Session
	OutFormat    string // "json" | "text"
	HTTP         *http.Client
}

func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	switch {
	case c.SessionToken != "":
		req.Header.Set("Authorization", "Session "+c.SessionToken)
	case c.APIToken != "":
		req.Header.Set("Authorization", "Bearer "+c.APIToken)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	var (
		baseURL = envOr("GATEHOUSE_URL", "https://localhost:47990")
		apiTok  = envOr("GATEHOUSE_API_TOKEN", "")
		sessTok = envOr("GATEHOUSE_SESSION_TOKEN", "")
		out     = envOr("GATEHOUSE_OUT", "text")
	)

	root := &cobra.Command{
		Use:   "gatehousectl",
		Short: "Admin client for the gatehouse management API",
	}
	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "Base URL of the management API (env GATEHOUSE_URL)")
	root.PersistentFlags().StringVar(&apiTok, "api-token", apiTok, "API token for Bearer auth (env GATEHOUSE_API_TOKEN)")
	root.PersistentFlags().StringVar(&sessTok, "session-token", sessTok, "Session token (env GATEHOUSE_SESSION_TOKEN)")
	root.PersistentFlags().StringVar(&out, "out", out, "Output format: json|text")

	cl := &client{HTTP: &http.Client{Timeout: 30 * time.Second}}
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		cl.BaseURL = baseURL
		cl.APIToken = apiTok
		cl.SessionToken = sessTok
		cl.OutFormat = out
	}

	// login
	var loginUser, loginPass string
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print the issued session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if loginUser == "" || loginPass == "" {
				return fmt.Errorf("--user and --pass are required")
			}
			body, _ := json.Marshal(map[string]any{"username": loginUser, "password": loginPass})
			status, resp, err := cl.do("POST", "/api/auth/login", body)
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return fmt.Errorf("login failed: status=%d body=%s", status, string(resp))
			}
			cl.print(status, resp)
			return nil
		},
	}
	loginCmd.Flags().StringVar(&loginUser, "user", "", "username")
	loginCmd.Flags().StringVar(&loginPass, "pass", "", "password")

	// token group
	tokenCmd := &cobra.Command{Use: "token", Short: "Manage scoped API tokens"}

	var scopePath string
	var scopeMethods []string
	tokenCreateCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API token with a single scope",
		RunE: func(cmd *cobra.Command, args []string) error {
			if scopePath == "" || len(scopeMethods) == 0 {
				return fmt.Errorf("--path and --method are required")
			}
			body, _ := json.Marshal(map[string]any{
				"scopes": []map[string]any{{"path": scopePath, "methods": scopeMethods}},
			})
			status, resp, err := cl.do("POST", "/api/tokens", body)
			if err != nil {
				return err
			}
			if status != http.StatusCreated {
				return fmt.Errorf("create failed: status=%d body=%s", status, string(resp))
			}
			cl.print(status, resp)
			return nil
		},
	}
	tokenCreateCmd.Flags().StringVar(&scopePath, "path", "", "path pattern the token may call (full-match)")
	tokenCreateCmd.Flags().StringSliceVar(&scopeMethods, "method", nil, "allowed HTTP methods (repeatable)")

	tokenListCmd := &cobra.Command{
		Use:   "list",
		Short: "List API tokens (hashes and scopes, never raw tokens)",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, resp, err := cl.do("GET", "/api/tokens", nil)
			if err != nil {
				return err
			}
			cl.print(status, resp)
			return nil
		},
	}

	tokenRevokeCmd := &cobra.Command{
		Use:   "revoke <hash>",
		Short: "Revoke an API token by hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, resp, err := cl.do("DELETE", "/api/tokens/"+args[0], nil)
			if err != nil {
				return err
			}
			cl.print(status, resp)
			return nil
		},
	}
	tokenCmd.AddCommand(tokenCreateCmd, tokenListCmd, tokenRevokeCmd)

	// session group
	sessionCmd := &cobra.Command{Use: "session", Short: "Manage interactive sessions"}

	var sessionUser string
	sessionListCmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, optionally filtered by username",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/sessions"
			if sessionUser != "" {
				path += "?username=" + sessionUser
			}
			status, resp, err := cl.do("GET", path, nil)
			if err != nil {
				return err
			}
			cl.print(status, resp)
			return nil
		},
	}
	sessionListCmd.Flags().StringVar(&sessionUser, "user", "", "filter by username")

	sessionRevokeCmd := &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke a session by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, resp, err := cl.do("DELETE", "/api/sessions/"+args[0], nil)
			if err != nil {
				return err
			}
			cl.print(status, resp)
			return nil
		},
	}
	sessionCmd.AddCommand(sessionListCmd, sessionRevokeCmd)

	root.AddCommand(loginCmd, tokenCmd, sessionCmd)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
