package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dgnsrekt/notereader/internal/settings"
)

type credentialsOptions struct {
	accessKeyID     string
	secretAccessKey string
	region          string
	reset           bool
}

var credsOpts credentialsOptions

var credentialsCmd = &cobra.Command{
	Use:     "credentials",
	Short:   "Store or reset the AWS credentials used by Polly",
	Long:    paragraph(fmt.Sprintf("\n%s the AWS keys used by the Polly engine. Missing values are prompted for. Stored keys take precedence over the AWS default credential chain.", keyword("Store"))),
	Example: paragraph("notereader credentials\nnotereader credentials --access-key-id AKID --region eu-west-1\nnotereader credentials --reset"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		file, err := settings.DefaultFile()
		if err != nil {
			return err
		}
		return updateCredentials(cmd.InOrStdin(), cmd.OutOrStdout(), file, credsOpts)
	},
}

func updateCredentials(in io.Reader, out io.Writer, file string, opts credentialsOptions) error {
	st, err := settings.Load(file)
	if err != nil {
		return err
	}

	if opts.reset {
		st.Reset()
		if err := st.Save(file); err != nil {
			return err
		}
		fmt.Fprintln(out, "Removed AWS credentials from:", file)
		return nil
	}

	r := bufio.NewReader(in)
	if opts.accessKeyID == "" {
		if opts.accessKeyID, err = prompt(r, out, "AWS access key id: "); err != nil {
			return err
		}
	}
	if opts.secretAccessKey == "" {
		if opts.secretAccessKey, err = promptSecret(in, r, out, "AWS secret access key: "); err != nil {
			return err
		}
	}
	if opts.accessKeyID == "" || opts.secretAccessKey == "" {
		return errors.New("both the access key id and the secret access key are required")
	}

	st.AWS.AccessKeyID = opts.accessKeyID
	st.AWS.SecretAccessKey = opts.secretAccessKey
	if opts.region != "" {
		st.AWS.Region = opts.region
	}
	if err := st.Save(file); err != nil {
		return err
	}
	fmt.Fprintln(out, "Wrote credentials to:", file)
	return nil
}

func prompt(r *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("unable to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptSecret does not echo when in is a terminal.
func promptSecret(in io.Reader, r *bufio.Reader, out io.Writer, label string) (string, error) {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) { //nolint:gosec
		return prompt(r, out, label)
	}
	fmt.Fprint(out, label)
	b, err := term.ReadPassword(int(f.Fd())) //nolint:gosec
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("unable to read input: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func init() {
	credentialsCmd.Flags().StringVar(&credsOpts.accessKeyID, "access-key-id", "", "AWS access key id")
	credentialsCmd.Flags().StringVar(&credsOpts.secretAccessKey, "secret-access-key", "", "AWS secret access key")
	credentialsCmd.Flags().StringVar(&credsOpts.region, "region", "", "AWS region for Polly")
	credentialsCmd.Flags().BoolVar(&credsOpts.reset, "reset", false, "remove the stored AWS credentials")
}
