package rsync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"patchlink/internal/application"
	"patchlink/internal/domain"
	"patchlink/internal/ports"
)

var _ ports.Syncer = (*Syncer)(nil)

// linkScript replays a link manifest on the remote host. It expects $patch
// and $prev to be set and runs from the export directory.
const linkScript = `set -e
while read f; do
  destf="$PWD/$patch/$f"
  if [ -h "$destf" ]; then
    continue
  elif [ -e "$destf" ]; then
    echo >&2 "symlink target already exists: $destf"
    false
  else
    echo "create $destf"
    mkdir -p "$(dirname "$destf")"
    ln -rs "$(readlink -f "$PWD/$prev/$f")" "$destf"
  fi
done < "$PWD/$patch.links.txt"
`

// Syncer mirrors patch directories with rsync, then recreates their links
// remotely over ssh
type Syncer struct {
	runner ports.ProcessRunner
	logger *slog.Logger
}

// NewSyncer creates a syncer running commands through runner
func NewSyncer(runner ports.ProcessRunner, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Syncer{runner: runner, logger: logger}
}

// Sync uploads one patch directory.
//
// Files listed in the link manifest are excluded from the transfer, each
// anchored at the patch directory so a listed path never matches a file of
// the same name deeper in the tree. The manifest is copied next to the
// remote patch directory and replayed there, creating each missing link and
// failing on entries occupied by real files.
func (s *Syncer) Sync(ctx context.Context, req ports.SyncRequest) error {
	host, dir, err := application.ParseTarget(req.Target)
	if err != nil {
		return err
	}

	// forward slashes are used remotely as well
	output := filepath.ToSlash(filepath.Clean(req.OutputDir))
	hasPrevious := !req.PreviousVersion.IsZero()
	linksFile := req.LinksFile
	if hasPrevious && linksFile == "" {
		linksFile = domain.LinkManifestPath(req.OutputDir)
	}

	var excludeFile string
	if hasPrevious {
		excludeFile, err = writeExcludeList(linksFile)
		if err != nil {
			return err
		}
		defer os.Remove(excludeFile)
	}

	s.logger.Info("synchronizing", "patch", req.Version.String(), "target", req.Target)
	if _, err := s.runner.Run(ctx, "rsync", rsyncArgs(output, req.Target, req.Version, excludeFile)...); err != nil {
		return fmt.Errorf("failed to synchronize patch %s: %w", req.Version, err)
	}

	if !hasPrevious {
		return nil
	}

	s.logger.Info("copying link manifest", "patch", req.Version.String(), "target", req.Target)
	if _, err := s.runner.Run(ctx, "scp", filepath.ToSlash(linksFile), req.Target+"/"); err != nil {
		return fmt.Errorf("failed to copy link manifest: %w", err)
	}

	s.logger.Info("updating remote links", "patch", req.Version.String(), "host", host)
	if _, err := s.runner.Run(ctx, "ssh", host, remoteScript(dir, req.Version, req.PreviousVersion)); err != nil {
		return fmt.Errorf("failed to update remote links: %w", err)
	}
	return nil
}

// writeExcludeList turns a link manifest into a temporary rsync exclude file
// with one anchored pattern per path. The caller removes it.
func writeExcludeList(linksFile string) (string, error) {
	f, err := os.Open(linksFile)
	if err != nil {
		return "", fmt.Errorf("failed to open link manifest: %w", err)
	}
	manifest, err := domain.ReadLinkManifest(f)
	f.Close()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, p := range manifest {
		b.WriteString(excludePattern(p))
		b.WriteByte('\n')
	}

	tmp, err := os.CreateTemp("", "patchlink-exclude-*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create exclude list: %w", err)
	}
	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write exclude list: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write exclude list: %w", err)
	}
	return tmp.Name(), nil
}

// excludePattern anchors path at the transfer root. rsync only treats
// backslashes as escapes in patterns holding a wildcard, so escaping is
// applied to those alone.
func excludePattern(path string) string {
	if strings.ContainsAny(path, "*?[") {
		r := strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`)
		path = r.Replace(path)
	}
	return "/" + strings.TrimPrefix(path, "/")
}

func rsyncArgs(output, target string, version domain.Version, excludeFile string) []string {
	args := []string{
		"--progress", "--delete", "-rtOJ", "--size-only",
		output + "/", target + "/" + version.String() + "/",
	}
	if excludeFile != "" {
		args = append(args, "--exclude-from", filepath.ToSlash(excludeFile))
	}
	return args
}

func remoteScript(dir string, version, previous domain.Version) string {
	return fmt.Sprintf("patch=%s\nprev=%s\ncd %s\n", shellQuote(version.String()), shellQuote(previous.String()), shellQuote(dir)) + linkScript
}

// shellQuote quotes s for a POSIX shell
func shellQuote(s string) string {
	if s != "" && strings.Trim(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789._/-") == "" {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
