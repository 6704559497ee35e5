package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/etnz/cryptotax/config"
	"github.com/etnz/cryptotax/logger"
)

// EnvVerbose tells an extension that -v was set.
const EnvVerbose = "CTAX_VERBOSE"

// RunExtension attempts to find and execute an external ctax-<subcommand>
// binary. It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found.
//
// The extension inherits the environment, with the global flags passed as
// the configuration variables.
func RunExtension(subcommand string, args []string) (bool, int) {
	name := "ctax-" + subcommand
	log := logger.Get()

	lp, err := exec.LookPath(name)
	if err != nil {
		log.Debugw("extension not found", "command", name, "err", err)
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	cmd.Env = os.Environ()
	if cfg, err := Settings(); err == nil {
		cmd.Env = append(cmd.Env,
			config.EnvLedgerFile+"="+cfg.LedgerFile,
			config.EnvCurrency+"="+cfg.Currency,
			config.EnvThreshold+"="+cfg.Threshold.String(),
			config.EnvOracleURL+"="+cfg.OracleURL,
		)
	}
	cmd.Env = append(cmd.Env, EnvVerbose+"="+strconv.FormatBool(*Verbose))

	log.Debugw("running extension", "command", lp, "args", args)
	if err := cmd.Run(); err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return true, exitError.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", name, err)
		return true, 1
	}
	return true, 0
}
