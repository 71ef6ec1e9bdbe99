package logo

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lbltool/lbltool/pkg/efivars"
)

type fixture struct {
	ctrl   *Controller
	store  *efivars.Store
	esp    string
	locks  []string
	copies [][2]string
	out    bytes.Buffer
}

func newFixture(t *testing.T, despBuf, dvcBuf []byte) *fixture {
	t.Helper()

	fx := &fixture{
		store: efivars.NewStore(t.TempDir()),
		esp:   t.TempDir(),
	}
	if despBuf != nil {
		require.NoError(t, os.WriteFile(fx.store.Path(efivars.DespVar), despBuf, 0644))
	}
	if dvcBuf != nil {
		require.NoError(t, os.WriteFile(fx.store.Path(efivars.DvcVar), dvcBuf, 0644))
	}

	fx.ctrl = &Controller{
		Store:  fx.store,
		ESPDir: fx.esp,
		SetImmutable: func(path string, immutable bool) error {
			op := "unlock"
			if immutable {
				op = "lock"
			}
			fx.locks = append(fx.locks, op+":"+filepath.Base(path))
			return nil
		},
		Confirm: func(string) bool { return true },
		CopyFile: func(src, dst string) error {
			fx.copies = append(fx.copies, [2]string{src, dst})
			return nil
		},
		IsRoot: func() bool { return true },
		Out:    &fx.out,
	}
	return fx
}

func (fx *fixture) varBytes(t *testing.T, name string) []byte {
	t.Helper()
	buf, err := fx.store.Read(name)
	require.NoError(t, err)
	return buf
}

func writeImage(t *testing.T, name string, size int) string {
	t.Helper()
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = byte(i * 7)
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, buf, 0644))
	return path
}

func TestStatusReport(t *testing.T) {
	fx := newFixture(t, despFixture(), dvcFixture())

	require.NoError(t, fx.ctrl.Run(Request{}))

	out := fx.out.String()
	assert.Contains(t, out, "true")
	assert.Contains(t, out, "1024x768")
	assert.Contains(t, out, "JPG, BMP, PNG")
	assert.Contains(t, out, "08090a0b")

	// pure inspection performs no writes
	assert.Empty(t, fx.locks)
	assert.Equal(t, despFixture(), fx.varBytes(t, efivars.DespVar))
	assert.Equal(t, dvcFixture(), fx.varBytes(t, efivars.DvcVar))
}

func TestMissingVariables(t *testing.T) {
	tests := []struct {
		name string
		desp []byte
		dvc  []byte
	}{
		{"both absent", nil, nil},
		{"dvc absent", despFixture(), nil},
		{"desp absent", nil, dvcFixture()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t, tt.desp, tt.dvc)

			err := fx.ctrl.Run(Request{Disable: true})
			assert.ErrorIs(t, err, ErrUnsupportedPlatform)
			assert.Empty(t, fx.locks)
		})
	}
}

func TestMalformedVariables(t *testing.T) {
	fx := newFixture(t, make([]byte, 13), dvcFixture())
	assert.ErrorIs(t, fx.ctrl.Run(Request{}), ErrMalformed)

	fx = newFixture(t, despFixture(), make([]byte, 45))
	assert.ErrorIs(t, fx.ctrl.Run(Request{}), ErrMalformed)
}

func TestConflictingRequest(t *testing.T) {
	fx := newFixture(t, despFixture(), dvcFixture())

	err := fx.ctrl.Run(Request{Disable: true, ImagePath: "logo.png"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Empty(t, fx.locks)
	assert.Empty(t, fx.copies)
}

func TestDisable(t *testing.T) {
	fx := newFixture(t, despFixture(), dvcFixture())

	require.NoError(t, fx.ctrl.Run(Request{Disable: true}))

	d, err := ParseDescriptor(fx.varBytes(t, efivars.DespVar))
	require.NoError(t, err)
	assert.False(t, d.Enabled)
	assert.Equal(t, int32(7), d.Reserved)
	assert.Equal(t, int32(1024), d.MaxWidth)
	assert.Equal(t, int32(768), d.MaxHeight)
	assert.Equal(t, uint8(0x31), d.Capabilities)

	// DVC is never touched on disable, DESP is relocked after the write
	assert.Equal(t, dvcFixture(), fx.varBytes(t, efivars.DvcVar))
	assert.Equal(t, []string{
		"unlock:" + efivars.DespVar,
		"lock:" + efivars.DespVar,
	}, fx.locks)
}

func TestMutationNeedsRoot(t *testing.T) {
	img := writeImage(t, "logo.png", 64)

	for _, req := range []Request{
		{Disable: true},
		{ImagePath: img},
	} {
		fx := newFixture(t, despFixture(), dvcFixture())
		fx.ctrl.IsRoot = func() bool { return false }

		err := fx.ctrl.Run(req)
		assert.ErrorIs(t, err, os.ErrPermission)

		// the status block is still reported before refusing
		assert.Contains(t, fx.out.String(), "1024x768")
		assert.Empty(t, fx.locks)
		assert.Empty(t, fx.copies)
		assert.Equal(t, despFixture(), fx.varBytes(t, efivars.DespVar))
		assert.Equal(t, dvcFixture(), fx.varBytes(t, efivars.DvcVar))
	}
}

func TestInstallUnsupportedFormat(t *testing.T) {
	fx := newFixture(t, despFixture(), dvcFixture())
	img := writeImage(t, "logo.gif", 100)

	err := fx.ctrl.Run(Request{ImagePath: img})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	assert.Empty(t, fx.locks)
	assert.Empty(t, fx.copies)
	assert.Equal(t, despFixture(), fx.varBytes(t, efivars.DespVar))
	assert.Equal(t, dvcFixture(), fx.varBytes(t, efivars.DvcVar))
}

func TestInstall(t *testing.T) {
	// JPG+PNG only, logo currently disabled
	desp := despFixture()
	desp[4] = 0
	desp[13] = 0x21
	fx := newFixture(t, desp, dvcFixture())
	img := writeImage(t, "logo.png", 600)

	require.NoError(t, fx.ctrl.Run(Request{ImagePath: img}))

	wantDst := filepath.Join(fx.esp, "EFI", "Lenovo", "Logo", "mylogo_1024x768.png")
	require.Len(t, fx.copies, 1)
	assert.Equal(t, img, fx.copies[0][0])
	assert.Equal(t, wantDst, fx.copies[0][1])

	// destination directory exists before the copy
	fi, err := os.Stat(filepath.Dir(wantDst))
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	// DVC carries the CRC-32 of the first 512 source bytes, little-endian,
	// with the other 40 bytes untouched
	src, err := os.ReadFile(img)
	require.NoError(t, err)
	want := make([]byte, 4)
	binary.LittleEndian.PutUint32(want, crc32.ChecksumIEEE(src[:512]))

	dvcOut := fx.varBytes(t, efivars.DvcVar)
	assert.Equal(t, want, dvcOut[8:12])
	assert.Equal(t, dvcFixture()[:8], dvcOut[:8])
	assert.Equal(t, dvcFixture()[12:], dvcOut[12:])

	d, err := ParseDescriptor(fx.varBytes(t, efivars.DespVar))
	require.NoError(t, err)
	assert.True(t, d.Enabled)

	// DVC first, then DESP, each relocked before the next step
	assert.Equal(t, []string{
		"unlock:" + efivars.DvcVar,
		"lock:" + efivars.DvcVar,
		"unlock:" + efivars.DespVar,
		"lock:" + efivars.DespVar,
	}, fx.locks)
}

func TestInstallUppercaseExtension(t *testing.T) {
	fx := newFixture(t, despFixture(), dvcFixture())
	img := writeImage(t, "logo.BMP", 64)

	require.NoError(t, fx.ctrl.Run(Request{ImagePath: img}))

	require.Len(t, fx.copies, 1)
	assert.Equal(t, "mylogo_1024x768.bmp", filepath.Base(fx.copies[0][1]))
}

func TestInstallDeclined(t *testing.T) {
	fx := newFixture(t, despFixture(), dvcFixture())
	fx.ctrl.Confirm = func(string) bool { return false }
	img := writeImage(t, "logo.png", 64)

	require.NoError(t, fx.ctrl.Run(Request{ImagePath: img}))

	assert.Contains(t, fx.out.String(), "Aborted.")
	assert.Empty(t, fx.locks)
	assert.Empty(t, fx.copies)
	assert.Equal(t, despFixture(), fx.varBytes(t, efivars.DespVar))
	assert.Equal(t, dvcFixture(), fx.varBytes(t, efivars.DvcVar))
}
