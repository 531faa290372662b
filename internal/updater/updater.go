package updater

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/NeverVane/keepsake/internal/config"
	"github.com/NeverVane/keepsake/internal/logger"
)

// UpdateInfo describes a release newer than the running binary
type UpdateInfo struct {
	Version     string
	DownloadURL string
	Checksum    string
	ReleaseDate time.Time
	Changelog   string
	AssetName   string
	AssetSize   int64
	PreRelease  bool
}

// GitHubRelease represents a GitHub release response
type GitHubRelease struct {
	TagName     string         `json:"tag_name"`
	Name        string         `json:"name"`
	Body        string         `json:"body"`
	Draft       bool           `json:"draft"`
	Prerelease  bool           `json:"prerelease"`
	PublishedAt time.Time      `json:"published_at"`
	Assets      []ReleaseAsset `json:"assets"`
}

// ReleaseAsset is one downloadable file attached to a release
type ReleaseAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
	ContentType        string `json:"content_type"`
}

// Updater checks GitHub releases and swaps the running executable
type Updater struct {
	config         *config.Config
	logger         *logger.Logger
	currentVersion string
	httpClient     *http.Client
	apiBase        string
}

// NewUpdater creates an updater for the repository named in the config
func NewUpdater(cfg *config.Config, currentVersion string) *Updater {
	return &Updater{
		config:         cfg,
		logger:         logger.GetLogger().WithComponent("updater"),
		currentVersion: currentVersion,
		httpClient:     &http.Client{Timeout: cfg.GetUpdateTimeout()},
		apiBase:        "https://api.github.com",
	}
}

// CheckForUpdate returns release information when a newer version
// exists, nil when the running binary is current.
func (u *Updater) CheckForUpdate(ctx context.Context) (*UpdateInfo, error) {
	u.logger.Debug().Msg("Checking for updates")

	release, err := u.getLatestRelease(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest release: %w", err)
	}

	currentVer, err := semver.NewVersion(u.currentVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid current version '%s': %w", u.currentVersion, err)
	}

	latestVersionStr := strings.TrimPrefix(release.TagName, "v")
	latestVer, err := semver.NewVersion(latestVersionStr)
	if err != nil {
		return nil, fmt.Errorf("invalid latest version '%s': %w", latestVersionStr, err)
	}

	if !latestVer.GreaterThan(currentVer) {
		u.logger.Debug().
			Str("current", currentVer.String()).
			Str("latest", latestVer.String()).
			Msg("No update available")
		return nil, nil
	}

	asset, err := u.findAssetForPlatform(release)
	if err != nil {
		return nil, fmt.Errorf("failed to find asset for platform: %w", err)
	}

	info := &UpdateInfo{
		Version:     latestVer.String(),
		DownloadURL: asset.BrowserDownloadURL,
		ReleaseDate: release.PublishedAt,
		Changelog:   release.Body,
		AssetName:   asset.Name,
		AssetSize:   asset.Size,
		PreRelease:  release.Prerelease,
	}

	checksum, err := u.getAssetChecksum(ctx, release, asset.Name)
	if err != nil {
		u.logger.Warn().Err(err).Msg("Could not retrieve checksum")
	} else {
		info.Checksum = checksum
	}

	u.logger.Info().
		Str("current", currentVer.String()).
		Str("latest", latestVer.String()).
		Msg("Update available")

	return info, nil
}

// Update downloads the release asset, verifies it when a checksum is
// known, and replaces the running executable.
func (u *Updater) Update(ctx context.Context, info *UpdateInfo) error {
	u.logger.Info().
		Str("version", info.Version).
		Str("asset", info.AssetName).
		Msg("Starting update")

	tempDir, err := os.MkdirTemp("", "keepsake-update-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	downloadPath := filepath.Join(tempDir, info.AssetName)
	if err := u.downloadBinary(ctx, info.DownloadURL, downloadPath); err != nil {
		return fmt.Errorf("failed to download binary: %w", err)
	}

	if info.Checksum != "" {
		if err := u.verifyChecksum(downloadPath, info.Checksum); err != nil {
			return fmt.Errorf("checksum verification failed: %w", err)
		}
	}

	if err := u.replaceExecutable(downloadPath); err != nil {
		return fmt.Errorf("failed to replace executable: %w", err)
	}

	u.logger.Info().Str("version", info.Version).Msg("Update completed")
	return nil
}

// ShouldAutoCheck reports whether the periodic background check is due
// and stamps the attempt so repeated invocations stay quiet until the
// interval passes again.
func (u *Updater) ShouldAutoCheck() bool {
	if !u.config.Update.AutoCheck {
		return false
	}

	stamp := filepath.Join(u.config.DataDir, "last_update_check")
	if info, err := os.Stat(stamp); err == nil {
		if time.Since(info.ModTime()) < u.config.GetUpdateCheckInterval() {
			return false
		}
	}

	if err := os.WriteFile(stamp, []byte(time.Now().UTC().Format(time.RFC3339)+"\n"), 0644); err != nil {
		u.logger.Debug().Err(err).Msg("Failed to write update check stamp")
	}
	return true
}

// GetCurrentVersion returns the version the updater compares against
func (u *Updater) GetCurrentVersion() string {
	return u.currentVersion
}

func (u *Updater) getLatestRelease(ctx context.Context) (*GitHubRelease, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest",
		u.apiBase, u.config.Update.RepoOwner, u.config.Update.RepoName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release GitHubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &release, nil
}

func (u *Updater) findAssetForPlatform(release *GitHubRelease) (*ReleaseAsset, error) {
	platform := runtime.GOOS
	arch := runtime.GOARCH

	for i := range release.Assets {
		if matchesPlatform(release.Assets[i].Name, platform, arch) {
			return &release.Assets[i], nil
		}
	}

	return nil, fmt.Errorf("no asset found for platform %s/%s", platform, arch)
}

// matchesPlatform checks if an asset name matches the given platform,
// accepting the alternative spellings release pipelines use for macOS.
func matchesPlatform(assetName, platform, arch string) bool {
	name := strings.ToLower(assetName)

	if !strings.Contains(name, arch) {
		return false
	}

	if strings.Contains(name, platform) {
		return true
	}
	if platform == "darwin" {
		return strings.Contains(name, "macos") || strings.Contains(name, "osx")
	}

	return false
}

// getAssetChecksum looks for a checksums asset and extracts the hash
// recorded for assetName.
func (u *Updater) getAssetChecksum(ctx context.Context, release *GitHubRelease, assetName string) (string, error) {
	checksumFiles := []string{
		"checksums.txt", "checksums.sha256", "SHA256SUMS",
		assetName + ".sha256",
	}

	for _, checksumFile := range checksumFiles {
		for _, asset := range release.Assets {
			if strings.EqualFold(asset.Name, checksumFile) {
				return u.downloadChecksum(ctx, asset.BrowserDownloadURL, assetName)
			}
		}
	}

	return "", fmt.Errorf("no checksum file found")
}

func (u *Updater) downloadChecksum(ctx context.Context, url, assetName string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	// Lines look like "<hash>  <filename>", occasionally with a "*" or
	// "./" prefix on the filename.
	for _, line := range strings.Split(string(body), "\n") {
		parts := strings.Fields(strings.TrimSpace(line))
		if len(parts) < 2 {
			continue
		}
		hash := parts[0]
		filename := strings.TrimPrefix(strings.TrimPrefix(parts[1], "./"), "*")
		if filename == assetName {
			return hash, nil
		}
	}

	return "", fmt.Errorf("checksum not found for asset %s", assetName)
}

func (u *Updater) downloadBinary(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return err
	}

	if err := os.Chmod(destPath, 0755); err != nil {
		return fmt.Errorf("failed to make binary executable: %w", err)
	}

	return nil
}

func (u *Updater) verifyChecksum(filePath, expectedChecksum string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return err
	}

	actualChecksum := hex.EncodeToString(hasher.Sum(nil))
	if !strings.EqualFold(actualChecksum, expectedChecksum) {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expectedChecksum, actualChecksum)
	}

	return nil
}

// replaceExecutable swaps the running binary for the downloaded one,
// restoring a backup when the swap fails partway.
func (u *Updater) replaceExecutable(newBinaryPath string) error {
	currentExe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get current executable path: %w", err)
	}

	backupPath := currentExe + ".backup"
	if err := copyFile(currentExe, backupPath); err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	defer func() {
		if err := os.Remove(backupPath); err != nil && !os.IsNotExist(err) {
			u.logger.Warn().Err(err).Msg("Failed to remove backup file")
		}
	}()

	if err := atomicReplaceFile(newBinaryPath, currentExe); err != nil {
		if restoreErr := copyFile(backupPath, currentExe); restoreErr != nil {
			u.logger.Error().Err(restoreErr).Msg("Failed to restore backup after update failure")
		}
		return err
	}

	return nil
}

// atomicReplaceFile copies src into a temp file next to dst and renames
// it into place. Rename rather than overwrite avoids "text file busy"
// on the running binary.
func atomicReplaceFile(src, dst string) error {
	perm := os.FileMode(0755)
	if info, err := os.Stat(dst); err == nil {
		perm = info.Mode()
	}

	tempFile, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".tmp.*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempPath := tempFile.Name()
	defer func() {
		tempFile.Close()
		if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
			logger.GetLogger().WithComponent("updater").
				Warn().Err(err).Str("temp_file", tempPath).Msg("Failed to remove temporary file")
		}
	}()

	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer srcFile.Close()

	if _, err := io.Copy(tempFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file content: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Chmod(tempPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tempPath, dst); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return err
	}

	return os.Chmod(dst, srcInfo.Mode())
}
