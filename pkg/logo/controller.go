// Package logo implements the Lenovo boot logo records and the
// inspect/disable/install transitions over them.
package logo

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"

	"github.com/lbltool/lbltool/pkg/efivars"
	"github.com/lbltool/lbltool/pkg/fsattr"
	"github.com/lbltool/lbltool/pkg/imgsum"
	"github.com/lbltool/lbltool/pkg/util"
)

var (
	// ErrUnsupportedPlatform means the Lenovo logo variables are not
	// present. Expected on firmware without custom logo support.
	ErrUnsupportedPlatform = errors.New("logo variables not present")

	// ErrUnsupportedFormat means the image extension is not in the
	// firmware's capability set.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrConflict means the request asked for disable and install at
	// the same time.
	ErrConflict = errors.New("conflicting request")
)

var labelStyle = color.New(color.Bold).SprintFunc()

// Config carries the two directories everything happens under.
type Config struct {
	// ESPDir is the mount point of the EFI system partition.
	ESPDir string

	// VarDir is the variable store root, usually the efivarfs mount
	// point.
	VarDir string
}

// Request is one user-level operation against the logo state. The zero
// value is a pure inspection.
type Request struct {
	Disable   bool
	ImagePath string
}

// Controller loads the two logo variables, reports their state and runs
// at most one mutating transition. The collaborators are plain fields
// so tests can drive the transitions against a throwaway directory.
type Controller struct {
	Store        *efivars.Store
	ESPDir       string
	SetImmutable func(path string, immutable bool) error
	Confirm      func(prompt string) bool
	CopyFile     func(src, dst string) error
	IsRoot       func() bool
	Out          io.Writer
}

func New(cfg Config) *Controller {
	return &Controller{
		Store:        efivars.NewStore(cfg.VarDir),
		ESPDir:       cfg.ESPDir,
		SetImmutable: fsattr.SetImmutable,
		Confirm:      func(string) bool { return true },
		CopyFile:     util.CopyFile,
		IsRoot:       util.IsRoot,
		Out:          os.Stdout,
	}
}

// Run inspects the logo state, prints the status report and performs
// the requested transition, if any. Preconditions are checked before
// the first write; a failure mid-sequence skips the remaining steps.
func (c *Controller) Run(req Request) error {
	log.Trace().Msg("logo.Run()")

	if req.Disable && req.ImagePath != "" {
		return fmt.Errorf("%w: disable and install an image at the same time", ErrConflict)
	}

	desp, dvc, err := c.load()
	if err != nil {
		return err
	}
	c.printStatus(desp, dvc)

	if !req.Disable && req.ImagePath == "" {
		return nil
	}

	// the status block above is readable by anyone, mutations are not
	if !c.IsRoot() {
		return fmt.Errorf("changing the boot logo: %w", os.ErrPermission)
	}

	if req.Disable {
		return c.disable(desp)
	}
	return c.install(desp, dvc, req.ImagePath)
}

func (c *Controller) load() (*Descriptor, *DeviceConfig, error) {
	despBuf, err := c.Store.Read(efivars.DespVar)
	if err != nil {
		return nil, nil, platformErr(err)
	}
	dvcBuf, err := c.Store.Read(efivars.DvcVar)
	if err != nil {
		return nil, nil, platformErr(err)
	}

	desp, err := ParseDescriptor(despBuf)
	if err != nil {
		return nil, nil, err
	}
	dvc, err := ParseDeviceConfig(dvcBuf)
	if err != nil {
		return nil, nil, err
	}
	return desp, dvc, nil
}

func platformErr(err error) error {
	if errors.Is(err, efivars.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrUnsupportedPlatform, err)
	}
	return err
}

func (c *Controller) printStatus(desp *Descriptor, dvc *DeviceConfig) {
	fmt.Fprintf(c.Out, "%s %v\n", labelStyle("Logo enabled:"), desp.Enabled)
	fmt.Fprintf(c.Out, "%s %dx%d\n", labelStyle("Logo maximum resolution:"), desp.MaxWidth, desp.MaxHeight)
	fmt.Fprintf(c.Out, "%s %s\n", labelStyle("Logo format support:"), strings.Join(desp.Formats(), ", "))
	fmt.Fprintf(c.Out, "%s %s\n", labelStyle("Logo CRC32:"), dvc.ChecksumHex())
}

// writeVar performs the mutation dance on one variable: drop the
// immutable flag, rewrite the file, restore the flag. A failure after
// the unlock leaves the variable unlocked; rewriting on top of unknown
// state would be worse, so the remainder is skipped and the error
// reported.
func (c *Controller) writeVar(name string, buf []byte) error {
	path := c.Store.Path(name)
	if err := c.SetImmutable(path, false); err != nil {
		return err
	}
	if err := c.Store.Write(name, buf); err != nil {
		return err
	}
	return c.SetImmutable(path, true)
}

func (c *Controller) disable(desp *Descriptor) error {
	desp.Enabled = false
	if err := c.writeVar(efivars.DespVar, desp.Encode()); err != nil {
		return err
	}
	fmt.Fprintln(c.Out, "Boot logo has been disabled.")
	return nil
}

func (c *Controller) install(desp *Descriptor, dvc *DeviceConfig, src string) error {
	ext := strings.TrimPrefix(filepath.Ext(src), ".")
	if !desp.Supports(ext) {
		return fmt.Errorf("%w: .%s (firmware accepts %s)",
			ErrUnsupportedFormat, strings.ToLower(ext), strings.Join(desp.Formats(), ", "))
	}

	dst := filepath.Join(c.ESPDir, "EFI", "Lenovo", "Logo",
		fmt.Sprintf("mylogo_%dx%d.%s", desp.MaxWidth, desp.MaxHeight, strings.ToLower(ext)))

	fmt.Fprintf(c.Out, "Logo file will be copied to %s\n", dst)
	if !c.Confirm("Confirm (Y/n): ") {
		fmt.Fprintln(c.Out, "Aborted.")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	if err := c.CopyFile(src, dst); err != nil {
		return err
	}

	// The firmware checks the copy against a checksum of the source.
	sum, err := imgsum.File(src)
	if err != nil {
		return err
	}

	if err := c.writeVar(efivars.DvcVar, dvc.WithChecksum(sum).Encode()); err != nil {
		return err
	}

	desp.Enabled = true
	if err := c.writeVar(efivars.DespVar, desp.Encode()); err != nil {
		return err
	}

	fmt.Fprintln(c.Out, "Boot logo has been enabled.")
	return nil
}
