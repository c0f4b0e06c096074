package rows

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/site"
)

func collect(t *testing.T, input string) []site.Record {
	t.Helper()
	r, err := NewReader(strings.NewReader(input))
	require.NoError(t, err)

	var out []site.Record
	for rec, err := range r.All() {
		require.NoError(t, err)
		out = append(out, rec)
	}
	return out
}

func TestReader_StreamsRecordsInOrder(t *testing.T) {
	input := "domain,phone,address,email,title\n" +
		" acme.test ,123,,x@acme.test,\n" +
		"globex.test,555-1234,1 Main St,a@b.com,Globex\n"

	recs := collect(t, input)
	require.Len(t, recs, 2)
	require.Equal(t, site.Record{Domain: "acme.test", Phone: "123", Email: "x@acme.test", Line: 2}, recs[0])
	require.Equal(t, "globex.test", recs[1].Domain)
	require.Equal(t, "1 Main St", recs[1].Address)
	require.Equal(t, "Globex", recs[1].Title)
	require.Equal(t, 3, recs[1].Line)
}

func TestReader_HeaderIsCaseInsensitiveAndBOMTolerant(t *testing.T) {
	input := "\ufeffDomain , PHONE,Notes\nacme.test,123,ignored\n"

	recs := collect(t, input)
	require.Len(t, recs, 1)
	require.Equal(t, "acme.test", recs[0].Domain)
	require.Equal(t, "123", recs[0].Phone)
}

func TestReader_OnlyDomainColumn(t *testing.T) {
	recs := collect(t, "domain\nacme.test\n")
	require.Len(t, recs, 1)
	require.Empty(t, recs[0].Title)
	require.Equal(t, "acme.test", recs[0].PageTitle())
}

func TestReader_ShortRowsFillEmpty(t *testing.T) {
	recs := collect(t, "domain,phone,email\nacme.test\n")
	require.Len(t, recs, 1)
	require.Empty(t, recs[0].Phone)
	require.Empty(t, recs[0].Email)
}

func TestReader_MissingDomainColumn(t *testing.T) {
	_, err := NewReader(strings.NewReader("phone,email\n1,2\n"))
	require.ErrorIs(t, err, ErrNoDomainColumn)
}

func TestReader_EmptyInput(t *testing.T) {
	_, err := NewReader(strings.NewReader(""))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReader_EmptyDomainRow(t *testing.T) {
	r, err := NewReader(strings.NewReader("domain,phone\nacme.test,1\n  ,2\n"))
	require.NoError(t, err)

	_, err = r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	require.ErrorIs(t, err, ErrEmptyDomain)
	require.Contains(t, err.Error(), "line 3")
}

func TestReader_RejectsPathLikeDomains(t *testing.T) {
	for _, d := range []string{"..", "a/b", `a\b`} {
		r, err := NewReader(strings.NewReader("domain\n" + d + "\n"))
		require.NoError(t, err)
		_, err = r.Next()
		require.ErrorIs(t, err, ErrInvalidDomain, d)
	}
}

func TestReader_RejectsReservedDomains(t *testing.T) {
	for _, d := range []string{".sitegen", ".SITEGEN", ".git"} {
		r, err := NewReader(strings.NewReader("domain\n" + d + "\n"))
		require.NoError(t, err)
		_, err = r.Next()
		require.ErrorIs(t, err, ErrReservedDomain, d)
	}
}

func TestReader_MalformedQuoteStopsIteration(t *testing.T) {
	r, err := NewReader(strings.NewReader("domain\n\"unterminated\n"))
	require.NoError(t, err)

	var errs int
	for _, err := range r.All() {
		if err != nil {
			errs++
		}
	}
	require.Equal(t, 1, errs)
}

func TestReader_NextReturnsEOF(t *testing.T) {
	r, err := NewReader(strings.NewReader("domain\n"))
	require.NoError(t, err)
	_, err = r.Next()
	require.True(t, errors.Is(err, io.EOF))
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.csv")
	require.NoError(t, os.WriteFile(path, []byte("domain\nacme.test\n"), 0o600))

	f, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rec, err := f.Next()
	require.NoError(t, err)
	require.Equal(t, "acme.test", rec.Domain)

	_, err = Open(filepath.Join(t.TempDir(), "missing.csv"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
