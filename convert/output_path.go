package convert

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"mailsmith/config"
	"mailsmith/state"
)

// appended to every produced file name
const outputExt = ".email.html"

// buildOutputPath returns output file path for the template. It uses either
// source file name or user-defined template and takes into account whether to
// preserve source directory structure on the output. Path is cleaned and, if
// requested, transliterated.
func buildOutputPath(values Values, src, dst string, env *state.LocalEnv) string {
	outDir := determineOutputDir(src, dst, env)
	defaultFile := buildDefaultFileName(src, env)

	if env.Cfg.Inliner.OutputNameTemplate == "" {
		return filepath.Join(outDir, defaultFile)
	}

	expandedName := expandOutputNameTemplate(values, env)
	if expandedName == "" {
		// fallback to default name if template expansion failed
		return filepath.Join(outDir, defaultFile)
	}
	return assemblePathWithSubdirs(outDir, expandedName, env)
}

func determineOutputDir(src, dst string, env *state.LocalEnv) string {
	if env.NoDirs {
		return dst
	}
	return filepath.Join(dst, filepath.Dir(src))
}

func buildDefaultFileName(src string, env *state.LocalEnv) string {
	return cleanPathSegment(strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)), env) + outputExt
}

func expandOutputNameTemplate(values Values, env *state.LocalEnv) string {
	expandedName, err := expandTemplate(config.OutputNameTemplateFieldName, env.Cfg.Inliner.OutputNameTemplate, values)
	if err != nil {
		env.Log.Warn("Unable to prepare output filename", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(filepath.FromSlash(expandedName))
}

// assemblePathWithSubdirs takes an expanded template name (which may contain
// path separators for subdirectories) and assembles it into a full output
// path. Segments which would leave output directory are dropped.
func assemblePathWithSubdirs(outDir, expandedName string, env *state.LocalEnv) string {
	segments := slices.DeleteFunc(strings.Split(expandedName, string(os.PathSeparator)), func(s string) bool {
		s = strings.TrimSpace(s)
		return s == "" || s == "." || s == ".."
	})
	if len(segments) == 0 {
		return filepath.Join(outDir, buildDefaultFileName("", env))
	}

	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, outDir)
	for _, segment := range segments[:len(segments)-1] {
		parts = append(parts, cleanPathSegment(segment, env))
	}
	parts = append(parts, cleanPathSegment(segments[len(segments)-1], env)+outputExt)
	return filepath.Join(parts...)
}

func cleanPathSegment(segment string, env *state.LocalEnv) string {
	if env.Cfg.Inliner.FileNameTransliterate {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}
