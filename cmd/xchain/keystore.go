package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bitfsorg/xchain-go/wallet"
)

// EnvPassword, when set, is used instead of prompting for the keystore
// password.
const EnvPassword = "XCHAIN_PASSWORD"

// minPasswordLen is the shortest password keystore init accepts.
const minPasswordLen = 8

var errKeystoreExists = errors.New("keystore already exists")

var keystoreCmd = &cobra.Command{
	Use:   "keystore",
	Short: "Create, restore or inspect the encrypted seed",
}

var keystoreInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a new recovery phrase and store its seed",
	Args:  cobra.NoArgs,
	RunE:  runKeystoreInit,
}

var keystoreRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Store the seed of an existing recovery phrase read from stdin",
	Args:  cobra.NoArgs,
	RunE:  runKeystoreRestore,
}

var keystoreInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show keystore metadata without decrypting it",
	Args:  cobra.NoArgs,
	RunE:  runKeystoreInfo,
}

func init() {
	keystoreInitCmd.Flags().Int("words", 12, "recovery phrase length: 12 or 24")
	keystoreCmd.PersistentFlags().String("bip39-passphrase", "", "optional BIP39 passphrase")
	keystoreCmd.AddCommand(keystoreInitCmd)
	keystoreCmd.AddCommand(keystoreRestoreCmd)
	keystoreCmd.AddCommand(keystoreInfoCmd)
}

func runKeystoreInit(cmd *cobra.Command, _ []string) error {
	words, _ := cmd.Flags().GetInt("words")
	if _, err := os.Stat(keystorePath()); err == nil {
		return fmt.Errorf("%w: %s", errKeystoreExists, keystorePath())
	}

	mnemonic, err := wallet.GenerateMnemonic(words)
	if err != nil {
		return err
	}
	if err := storeMnemonic(cmd, mnemonic); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, color.GreenString("Keystore created."))
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Recovery phrase (%d words):\n\n   %s\n\n", words, mnemonic)
	fmt.Fprintln(out, color.YellowString("Write it down and keep it offline. It is the only way to recover the wallet."))
	return nil
}

func runKeystoreRestore(cmd *cobra.Command, _ []string) error {
	if _, err := os.Stat(keystorePath()); err == nil {
		return fmt.Errorf("%w: %s", errKeystoreExists, keystorePath())
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Recovery phrase: ")
	mnemonic, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read recovery phrase: %w", err)
	}
	if !wallet.ValidateMnemonic(mnemonic) {
		return wallet.ErrInvalidMnemonic
	}
	if err := storeMnemonic(cmd, mnemonic); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("Keystore restored."))
	return nil
}

// storeMnemonic derives the seed of mnemonic and writes it encrypted under a
// newly chosen password.
func storeMnemonic(cmd *cobra.Command, mnemonic string) error {
	passphrase, _ := cmd.Flags().GetString("bip39-passphrase")
	seed, err := wallet.SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return err
	}
	defer clear(seed)

	password, err := newPassword()
	if err != nil {
		return err
	}
	return saveSeed(keystorePath(), seed, password, currentNetwork())
}

// saveSeed seals seed for net under password and writes the keystore
// owner-only to path.
func saveSeed(path string, seed []byte, password string, net wallet.Network) error {
	ks, err := wallet.SealSeed(seed, password, net)
	if err != nil {
		return err
	}
	enc, err := ks.Marshal()
	if err != nil {
		return fmt.Errorf("encode keystore: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", errKeystoreExists, path)
		}
		return fmt.Errorf("create keystore: %w", err)
	}
	if _, err := f.Write(enc); err != nil {
		_ = f.Close()
		return fmt.Errorf("write keystore: %w", err)
	}
	log.Infof("%s keystore written to %s", net, path)
	return f.Close()
}

// readKeystore parses the keystore at path without decrypting it.
func readKeystore(path string) (*wallet.Keystore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no keystore at %s, run 'xchain keystore init' first", path)
		}
		return nil, fmt.Errorf("read keystore: %w", err)
	}
	return wallet.ParseKeystore(data)
}

// loadSeed decrypts the seed at path after checking it was sealed for a
// network compatible with net.
func loadSeed(path, password string, net wallet.Network) ([]byte, error) {
	ks, err := readKeystore(path)
	if err != nil {
		return nil, err
	}
	if !ks.Compatible(net) {
		return nil, fmt.Errorf("%w: %s keystore, %s requested", wallet.ErrNetworkMismatch, ks.Network, net)
	}
	return ks.Open(password)
}

func runKeystoreInfo(cmd *cobra.Command, _ []string) error {
	ks, err := readKeystore(keystorePath())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Path:     %s\n", keystorePath())
	fmt.Fprintf(out, "Version:  %d\n", ks.Version)
	fmt.Fprintf(out, "Network:  %s\n", ks.Network)
	fmt.Fprintf(out, "Created:  %s\n", ks.Created.Format(time.RFC3339))
	fmt.Fprintf(out, "KDF:      %s (t=%d, m=%d KiB, p=%d)\n", ks.KDF.Name, ks.KDF.Time, ks.KDF.Memory, ks.KDF.Threads)
	if !ks.Compatible(currentNetwork()) {
		fmt.Fprintln(out, color.YellowString("Not usable on %s.", currentNetwork()))
	}
	return nil
}

// openWallet decrypts the keystore and returns a wallet context for the
// configured network.
func openWallet(account uint32) (wallet.Context, error) {
	password, err := readPassword("Keystore password: ")
	if err != nil {
		return wallet.Context{}, err
	}
	net := currentNetwork()
	seed, err := loadSeed(keystorePath(), password, net)
	if err != nil {
		return wallet.Context{}, err
	}
	defer clear(seed)
	return wallet.NewContext(seed, net, account)
}

// readPassword returns $XCHAIN_PASSWORD or prompts on the terminal.
func readPassword(prompt string) (string, error) {
	if pw, ok := os.LookupEnv(EnvPassword); ok {
		return pw, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("stdin is not a terminal; set %s", EnvPassword)
	}
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

// newPassword prompts for a password twice.
func newPassword() (string, error) {
	pw, err := readPassword("New keystore password: ")
	if err != nil {
		return "", err
	}
	if len(pw) < minPasswordLen {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	if _, ok := os.LookupEnv(EnvPassword); ok {
		return pw, nil
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		return "", err
	}
	if pw != confirm {
		return "", errors.New("passwords do not match")
	}
	return pw, nil
}
