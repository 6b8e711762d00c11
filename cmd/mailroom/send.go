package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/mailroom/internal/engine"
)

// send encola un envío real y espera el resultado. Smoke test de punta
// a punta: resolver + render + SMTP + auditoría, igual que un Enqueue
// del backend.
func newSendCmd(configPath *string) *cobra.Command {
	var (
		tenantID string
		scenario string
		to       string
		language string
		varsJSON string
		idemKey  string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Encola un email y espera su estado terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := buildApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer app.cleanup()

			vars := map[string]any{}
			if strings.TrimSpace(varsJSON) != "" {
				if err := json.Unmarshal([]byte(varsJSON), &vars); err != nil {
					return fmt.Errorf("--vars no es JSON válido: %w", err)
				}
			}

			attemptID, err := app.engine.Enqueue(ctx, engine.EnqueueRequest{
				TenantID:       tenantID,
				Scenario:       scenario,
				Recipient:      to,
				Variables:      vars,
				Language:       language,
				IdempotencyKey: idemKey,
			})
			if err != nil {
				return err
			}
			fmt.Printf("attempt %s enqueued\n", attemptID)

			// Drenar la unidad de background y reportar el estado final.
			app.sched.Wait()
			a, err := app.attempts.GetByID(ctx, tenantID, attemptID)
			if err != nil {
				return err
			}
			fmt.Printf("status=%s retries=%d", a.Status, a.RetryCount)
			if a.ErrorDetail != "" {
				fmt.Printf(" error=%q", a.ErrorDetail)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "ID del tenant")
	cmd.Flags().StringVar(&scenario, "scenario", "test", "escenario de email")
	cmd.Flags().StringVar(&to, "to", "", "destinatario")
	cmd.Flags().StringVar(&language, "lang", "", "idioma (en|es)")
	cmd.Flags().StringVar(&varsJSON, "vars", "", "variables del escenario en JSON")
	cmd.Flags().StringVar(&idemKey, "idempotency-key", "", "clave de idempotencia opcional")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// test-smtp valida la config efectiva del tenant (o el fallback global)
// conectando y autenticando, sin enviar nada.
func newTestSMTPCmd(configPath *string) *cobra.Command {
	var tenantID string

	cmd := &cobra.Command{
		Use:   "test-smtp",
		Short: "Conecta y autentica contra el servidor SMTP del tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := buildApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer app.cleanup()

			cfg, err := app.resolver.GetDecryptedConfig(ctx, tenantID)
			if err != nil {
				return err
			}
			ok, reason := app.engine.TestConnection(cfg)
			if !ok {
				return fmt.Errorf("connection test failed: %s", reason)
			}
			fmt.Printf("ok: %s:%d\n", cfg.Host, cfg.Port)
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "ID del tenant")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
