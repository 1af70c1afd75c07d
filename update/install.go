package update

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Install downloads the release binary, verifies it against the
// published checksums and swaps it in for the running executable. The
// previous binary is restored if the swap fails. progress, if non-nil,
// receives byte counts during the download.
func (c *Checker) Install(rel *Release, progress func(done, total int64)) error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	self, err = filepath.EvalSymlinks(self)
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	// The staging file must live next to the target so the final rename
	// stays on one filesystem.
	tmp, sum, err := c.download(rel.BinaryURL, filepath.Dir(self), progress)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	if rel.SumsURL != "" {
		want, err := c.publishedSum(rel.SumsURL, platformAsset())
		if err != nil {
			return fmt.Errorf("fetch checksums: %w", err)
		}
		if sum != want {
			return fmt.Errorf("checksum mismatch: got %s, want %s", sum[:12], want[:12])
		}
	}
	if err := os.Chmod(tmp, 0755); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	return replaceBinary(self, tmp)
}

// download streams the asset into a staging file in dir and returns its
// path together with the hex SHA-256 of the bytes written.
func (c *Checker) download(url, dir string, progress func(done, total int64)) (string, string, error) {
	resp, err := c.Client.Get(url)
	if err != nil {
		return "", "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("download: %s", resp.Status)
	}

	f, err := os.CreateTemp(dir, ".murmur-staged-*")
	if err != nil {
		return "", "", fmt.Errorf("stage download: %w", err)
	}
	h := sha256.New()
	var done int64
	buf := make([]byte, 64*1024)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				f.Close()
				os.Remove(f.Name())
				return "", "", fmt.Errorf("write download: %w", werr)
			}
			h.Write(buf[:n])
			done += int64(n)
			if progress != nil && resp.ContentLength > 0 {
				progress(done, resp.ContentLength)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			f.Close()
			os.Remove(f.Name())
			return "", "", fmt.Errorf("download: %w", rerr)
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", "", err
	}
	return f.Name(), hex.EncodeToString(h.Sum(nil)), nil
}

// publishedSum looks up the named asset in a checksums.txt of
// "<hash>  <name>" lines.
func (c *Checker) publishedSum(url, asset string) (string, error) {
	resp, err := c.Client.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("checksums: %s", resp.Status)
	}
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 2 && fields[1] == asset {
			return fields[0], nil
		}
	}
	return "", fmt.Errorf("no checksum entry for %s", asset)
}

// replaceBinary moves staged over target, keeping the old binary around
// long enough to roll back if the second rename fails.
func replaceBinary(target, staged string) error {
	retired := target + ".old"
	if err := os.Rename(target, retired); err != nil {
		return fmt.Errorf("retire current binary: %w", err)
	}
	if err := os.Rename(staged, target); err != nil {
		_ = os.Rename(retired, target)
		return fmt.Errorf("install new binary: %w", err)
	}
	_ = os.Remove(retired)
	return nil
}
