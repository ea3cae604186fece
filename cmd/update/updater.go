package update

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/fatih/color"
	"github.com/movementinfra/movectl/internal/build_info"
	"golang.org/x/sys/unix"
)

const (
	slug = "movementinfra/movectl"
)

type Updater struct {
	opts UpdaterOpts
}

type UpdaterOpts struct {
	Force     bool
	CheckOnly bool
}

func NewUpdater(opts UpdaterOpts) *Updater {
	return &Updater{
		opts: opts,
	}
}

func (u *Updater) Run() error {
	currentVersion := build_info.Version

	// Local builds have no release to compare against.
	if (currentVersion == "" || currentVersion == build_info.DefaultDevVersion) && !u.opts.Force {
		slog.Info("🤖 running a development build, nothing to update. Pass `--force` to install the latest release anyway.")
		return nil
	}

	exePath, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}

	if err := u.verifyWritePermissions(exePath); err != nil {
		args := os.Args[1:]
		commandStr := "sudo movectl " + strings.Join(args, " ")
		return fmt.Errorf("the movectl install location is not writable by the current user\nretry with elevated privileges - %s", color.GreenString(commandStr))
	}

	latest, found, err := selfupdate.DetectLatest(context.Background(), selfupdate.ParseSlug(slug))
	if err != nil {
		return fmt.Errorf("failed to check for releases: %w", err)
	}
	if !found {
		return fmt.Errorf("no release found for %s/%s in the %s repository", runtime.GOOS, runtime.GOARCH, slug)
	}

	if latest.LessOrEqual(currentVersion) {
		slog.Info(fmt.Sprintf("✅ movectl %s is up to date", currentVersion))
		return nil
	}

	slog.Info(fmt.Sprintf("🎉 release %s is available (installed: %s)", latest.Version(), currentVersion))

	if u.opts.CheckOnly {
		slog.Info("💡 run `movectl update` without --check-only to install it")
		return nil
	}

	if !u.opts.Force && !u.askForConfirmation(fmt.Sprintf("🤔 Install movectl %s now? (y/N): ", latest.Version())) {
		slog.Warn("🚫 update cancelled")
		return nil
	}

	slog.Info(fmt.Sprintf("🚀 updating %s --> %s", currentVersion, latest.Version()))

	if err := selfupdate.UpdateTo(context.Background(), latest.AssetURL, latest.AssetName, exePath); err != nil {
		return fmt.Errorf("failed to install release %s: %w", latest.Version(), err)
	}

	slog.Info(fmt.Sprintf("✅ movectl updated to %s", latest.Version()))

	return nil
}

func (u *Updater) verifyWritePermissions(path string) error {
	// linux/macOS only at the moment - will need to add Windows support later
	dir := filepath.Dir(path)
	if err := unix.Access(dir, unix.W_OK); err != nil {
		return fmt.Errorf("insufficient permissions: directory %s is not writable", dir)
	}
	return nil
}

func (u *Updater) askForConfirmation(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))

	return response == "y" || response == "yes"
}
