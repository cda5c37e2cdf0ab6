package pakdump

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	dirPerm  os.FileMode = 0755
	filePerm os.FileMode = 0644
)

// Status is the outcome of extracting one entry.
type Status string

const (
	StatusExtracted Status = "extracted"
	StatusSkipped   Status = "skipped" // the entry has no chunks
	StatusFailed    Status = "failed"
)

// Outcome records what happened to one entry.
type Outcome struct {
	File
	Status   Status
	Path     string
	Written  int
	CityHash uint64
	Err      error
}

// Result lists the outcome of every entry in emission order.
type Result struct {
	Outcomes []Outcome
}

func (r *Result) filter(s Status) []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == s {
			out = append(out, o)
		}
	}
	return out
}

// Extracted lists the entries that were written.
func (r *Result) Extracted() []Outcome { return r.filter(StatusExtracted) }

// Skipped lists the entries without chunks.
func (r *Result) Skipped() []Outcome { return r.filter(StatusSkipped) }

// Failed lists the entries that could not be written.
func (r *Result) Failed() []Outcome { return r.filter(StatusFailed) }

// Err summarises per-entry failures. It wraps the first failure.
func (r *Result) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	return errors.Wrapf(failed[0].Err, "%d of %d files failed, first", len(failed), len(r.Outcomes))
}

// ExtractOptions controls Extract.
type ExtractOptions struct {
	FS       OutputFS // defaults to the OS filesystem
	Workers  int      // entries reassembled in parallel; <= 1 is sequential
	Manifest bool     // write manifest.json into the destination
}

// Extract writes every entry to dest/<name>. Failures of single entries are
// recorded in the Result and do not stop the run; the returned error is only
// set when dest cannot be created or the manifest cannot be written.
func (a *Archive) Extract(dest string, opts ExtractOptions) (*Result, error) {
	fs := opts.FS
	if fs == nil {
		fs = defaultFS
	}
	if err := fs.MkdirAll(dest, dirPerm); err != nil {
		return nil, ioFailure("create "+dest, err)
	}

	targets := planTargets(dest, a.Files, opts.Manifest)
	res := &Result{Outcomes: make([]Outcome, len(a.Files))}
	if opts.Workers > 1 {
		var g errgroup.Group
		g.SetLimit(opts.Workers)
		for i := range a.Files {
			i := i
			g.Go(func() error {
				res.Outcomes[i] = a.extractOne(fs, a.Files[i], targets[i])
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, f := range a.Files {
			res.Outcomes[i] = a.extractOne(fs, f, targets[i])
		}
	}

	extracted, skipped, failed := len(res.Extracted()), len(res.Skipped()), len(res.Failed())
	a.log.Infof("extracted %d files, skipped %d empty, %d failed", extracted, skipped, failed)

	if opts.Manifest {
		data, err := res.Manifest(a).Marshal()
		if err == nil {
			err = fs.WriteFile(filepath.Join(dest, ManifestFileName), data, filePerm)
		}
		if err != nil {
			return res, ioFailure("write manifest", err)
		}
	}
	return res, nil
}

// target is the output path planned for one entry.
type target struct {
	path string
	err  error
}

// planTargets assigns every entry its output path in emission order. A path
// already taken by an earlier entry, or by the manifest, fails the later entry.
func planTargets(dest string, files []File, manifest bool) []target {
	owner := make(map[string]string, len(files)+1)
	if manifest {
		owner[filepath.Join(dest, ManifestFileName)] = ManifestFileName
	}
	targets := make([]target, len(files))
	for i, f := range files {
		path, err := safeJoin(dest, f.Name)
		if err != nil {
			targets[i].err = err
			continue
		}
		if prev, ok := owner[path]; ok {
			targets[i].err = errors.Wrapf(ErrNameCollision, "%q is also written by %q", f.Name, prev)
			continue
		}
		owner[path] = f.Name
		targets[i].path = path
	}
	return targets
}

func (a *Archive) extractOne(fs OutputFS, f File, t target) Outcome {
	out := Outcome{File: f}
	log := a.log.WithField("entry", f.Name).WithField("offset", f.Offset)
	fail := func(err error) Outcome {
		out.Status = StatusFailed
		out.Err = errors.Wrap(err, f.Name)
		log.WithError(err).Error("failed to dump file")
		return out
	}

	if t.err != nil {
		return fail(t.err)
	}
	path := t.path
	out.Path = path

	data, err := a.ReadFile(f)
	if err != nil {
		return fail(err)
	}
	if data == nil {
		log.Debug("entry has no chunks, nothing to write")
		out.Status = StatusSkipped
		return out
	}

	log.Info("saving file")
	if err := fs.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fail(ioFailure("create "+filepath.Dir(path), err))
	}
	if err := fs.WriteFile(path, data, filePerm); err != nil {
		return fail(ioFailure("write "+path, err))
	}
	out.Status = StatusExtracted
	out.Written = len(data)
	out.CityHash = fingerprint(data)
	return out
}

// safeJoin places name below dest, rejecting names that would leave it.
func safeJoin(dest, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if name == "" || clean == "." || filepath.IsAbs(clean) || filepath.VolumeName(clean) != "" ||
		clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errors.Wrapf(ErrUnsafeName, "%q", name)
	}
	return filepath.Join(dest, clean), nil
}
