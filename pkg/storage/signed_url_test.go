package storage

import (
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDownloadSignerSignAndVerify(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Hour)
	token, expiresAt, err := signer.Sign("export-1", "requests-20260301.csv")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	claim, err := signer.Verify(token, false)
	require.NoError(t, err)
	require.Equal(t, "export-1", claim.ExportID)
	require.Equal(t, "requests-20260301.csv", claim.FileName)
	require.WithinDuration(t, expiresAt, claim.ExpiresAt, time.Second)
}

func TestDownloadSignerExpired(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Millisecond*10)
	token, _, err := signer.Sign("export-1", "requests.csv")
	require.NoError(t, err)
	time.Sleep(time.Millisecond * 20)

	_, err = signer.Verify(token, false)
	require.Error(t, err)

	claim, err := signer.Verify(token, true)
	require.NoError(t, err)
	require.Equal(t, "export-1", claim.ExportID)
	require.Equal(t, "requests.csv", claim.FileName)
}

func TestDownloadSignerRejectsTampering(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Hour)
	token, _, err := signer.Sign("export-1", "requests.csv")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	parts[0] = "export-2"
	_, err = signer.Verify(strings.Join(parts, "."), false)
	require.Error(t, err)

	_, err = NewDownloadSigner("other-secret", time.Hour).Verify(token, false)
	require.Error(t, err)
}

func TestReportStoreRejectsTraversal(t *testing.T) {
	store, err := NewReportStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("requests.csv", []byte("a,b\n")))

	path, err := store.Path("requests.csv")
	require.NoError(t, err)
	require.NotEmpty(t, path)

	file, err := store.Open("requests.csv")
	require.NoError(t, err)
	content, err := io.ReadAll(file)
	require.NoError(t, file.Close())
	require.NoError(t, err)
	require.Equal(t, "a,b\n", string(content))

	_, err = store.Open("../outside.csv")
	require.Error(t, err)

	require.Error(t, store.Save("../outside.csv", []byte("x")))
	_, err = store.Path("../../etc/passwd")
	require.Error(t, err)
	_, err = store.Path("/etc/passwd")
	require.Error(t, err)
}

func TestReportStoreSweepRemovesStaleFiles(t *testing.T) {
	store, err := NewReportStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("stale.csv", []byte("old")))
	require.NoError(t, store.Save("fresh.csv", []byte("new")))

	stalePath, err := store.Path("stale.csv")
	require.NoError(t, err)
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(stalePath, old, old))

	removed, err := store.Sweep(24 * time.Hour)
	require.NoError(t, err)
	require.Equal(t, []string{"stale.csv"}, removed)

	_, err = store.Open("stale.csv")
	require.Error(t, err)
	file, err := store.Open("fresh.csv")
	require.NoError(t, err)
	require.NoError(t, file.Close())
}
