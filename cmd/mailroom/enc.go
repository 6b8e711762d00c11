package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/mailroom/internal/config"
	"github.com/dropDatabas3/mailroom/internal/security/secretbox"
)

// enc cifra un secreto con la clave maestra y lo imprime en el formato
// de columna password_enc. Útil para cargar configs por fuera de la UI.
func newEncCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "enc [secreto]",
		Short: "Cifra un secreto con la clave maestra (stdin si no hay argumento)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			cipher, err := secretbox.New(cfg.Security.SecretBoxMasterKey)
			if err != nil {
				return err
			}

			var plain string
			if len(args) == 1 {
				plain = args[0]
			} else {
				r := bufio.NewReader(os.Stdin)
				line, err := r.ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read stdin: %w", err)
				}
				plain = strings.TrimRight(line, "\r\n")
			}
			if plain == "" {
				return fmt.Errorf("nada que cifrar")
			}

			enc, err := cipher.Encrypt(plain)
			if err != nil {
				return err
			}
			fmt.Println(enc)
			return nil
		},
	}
}
