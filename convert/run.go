// Package convert implements batch inlining of template files.
package convert

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"mailsmith/archive"
	"mailsmith/config"
	"mailsmith/css"
	"mailsmith/dom"
	"mailsmith/inliner"
	"mailsmith/state"
)

// job is everything needed to inline single template.
type job struct {
	inl        *inliner.Inliner
	stylesheet string
	full       bool
	format     string
}

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("inline")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.NoDirs, env.Overwrite, env.Full = cmd.Bool("nodirs"), cmd.Bool("overwrite"), cmd.Bool("full")
	env.Stylesheet = cmd.String("css")
	if cmd.Bool("embedded") {
		env.Cfg.Inliner.EmbeddedStyles = true
	}

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	if cp := cmd.String("force-zip-cp"); len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil || env.CodePage == nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
		}
	}

	j, err := prepareJob(env)
	if err != nil {
		return err
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.String("format", j.format))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, j, log)
}

func prepareJob(env *state.LocalEnv) (*job, error) {
	stylesheet, err := env.LoadStylesheet(env.Stylesheet)
	if err != nil {
		return nil, err
	}
	inl, err := env.Inliner()
	if err != nil {
		return nil, err
	}
	if env.Rpt != nil {
		env.Rpt.StoreData("stylesheet-rules.txt", []byte(css.Dump(css.ExtractRules(stylesheet))))
	}
	j := &job{inl: inl, stylesheet: stylesheet, full: env.Full, format: "fragment"}
	if env.Full {
		j.format = env.Cfg.Inliner.Shell.Format.String()
	}
	return j, nil
}

// process determines the input type (directory, archive, or single file) and
// processes accordingly.
func process(ctx context.Context, src, dst string, j *job, log *zap.Logger) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := processDir(ctx, head, dst, j, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		arc, err := isArchiveFile(head)
		if err != nil {
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if arc {
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			if err := processArchive(ctx, head, tail, "", dst, j, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		tmpl, err := isTemplateFile(head)
		if err != nil {
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if tmpl && len(tail) == 0 {
			if file, err := os.Open(head); err != nil {
				log.Error("Unable to process file", zap.String("file", head), zap.Error(err))
			} else {
				defer file.Close()
				if err := processTemplate(ctx, file, filepath.Base(head), dst, j, log); err != nil {
					log.Error("Unable to process file", zap.String("file", head), zap.Error(err))
				}
			}
			break
		}
		return fmt.Errorf("input was not recognized as html template (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// processDir walks directory tree finding templates and archives and
// processes them. Symbolic links are not followed.
func processDir(ctx context.Context, dir, dst string, j *job, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		arc, err := isArchiveFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if arc {
			count++
			if err := processArchive(ctx, path, "", filepath.Dir(strings.TrimPrefix(path, dir)), dst, j, log); err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
			return nil
		}

		tmpl, err := isTemplateFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if !tmpl {
			log.Debug("Skipping file, not recognized as template or archive", zap.String("file", path))
			return nil
		}

		count++

		file, err := os.Open(path)
		if err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
			return nil
		}
		defer file.Close()

		src := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))
		if err := processTemplate(ctx, file, src, dst, j, log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
		return nil
	})
}

// processArchive processes all templates inside archive under "pathIn".
func processArchive(ctx context.Context, path, pathIn, pathOut, dst string, j *job, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("archive", path))
		}
	}()

	cp := state.EnvFromContext(ctx).CodePage

	return archive.Walk(path, filepath.ToSlash(pathIn), func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		tmpl, err := isTemplateInArchive(f)
		if err != nil {
			log.Warn("Skipping file in archive", zap.String("archive", arc), zap.String("path", f.Name), zap.Error(err))
			return nil
		}
		if !tmpl {
			log.Debug("Skipping file, not recognized as template", zap.String("archive", arc), zap.String("file", f.Name))
			return nil
		}

		count++

		r, err := f.Open()
		if err != nil {
			log.Error("Unable to process file in archive", zap.String("archive", arc), zap.String("file", f.Name), zap.Error(err))
			return nil
		}
		defer r.Close()

		pathInArchive := f.Name
		if cp != nil && f.NonUTF8 {
			// forcing zip file name encoding
			if n, err := cp.NewDecoder().String(pathInArchive); err == nil {
				pathInArchive = n
			} else {
				n, _ = ianaindex.IANA.Name(cp)
				log.Warn("Unable to convert archive name from specified encoding",
					zap.String("charset", n), zap.String("path", pathInArchive), zap.Error(err))
			}
		}
		if err := processTemplate(ctx, r, filepath.Join(pathOut, filepath.FromSlash(pathInArchive)), dst, j, log); err != nil {
			log.Error("Unable to process file in archive", zap.String("archive", arc), zap.String("file", f.Name), zap.Error(err))
		}
		return nil
	})
}

// processTemplate inlines single template. "src" is path of the source
// relative to what was given on command line (base file name for a single
// file) and always includes file name. "dst" is destination directory.
func processTemplate(ctx context.Context, r io.Reader, src, dst string, j *job, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var outputName string

	log.Info("Inlining starting", zap.String("from", src))
	defer func(start time.Time) {
		if r := recover(); r != nil {
			log.Error("Inlining ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("inlining panic: %v", r)
		} else if rerr == nil {
			log.Info("Inlining completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName))
		}
	}(time.Now())

	markup, err := dom.ReadHTML(r, "")
	if err != nil {
		return fmt.Errorf("unable to read template (%s): %w", src, err)
	}

	var result string
	if j.full {
		result = j.inl.Generate(markup, j.stylesheet)
	} else if result, err = j.inl.Inline(markup, j.stylesheet); err != nil {
		return fmt.Errorf("unable to inline styles (%s): %w", src, err)
	}

	outputName = buildOutputPath(newValues(config.OutputNameTemplateFieldName, src, markup, j.format), src, dst, env)

	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	if err := os.WriteFile(outputName, []byte(result), 0644); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}

	// Store result for debugging
	if err := env.Rpt.StoreCopy("result-"+filepath.Base(outputName), outputName); err != nil {
		log.Warn("Unable to store result in report", zap.Error(err))
	}
	return nil
}
