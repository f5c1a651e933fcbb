// Package discover finds the projects of a C# solution and their source
// files.
package discover

import (
	"bufio"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/slowsigma/CodeTrivia/internal/lang"
)

// ErrNoProjects is returned when a path yields no projects at all.
var ErrNoProjects = errors.New("no projects found")

// solutionFolderType is the project type GUID of .sln solution folders.
const solutionFolderType = "2150E333-8FDC-42A3-9474-1A3956D46DE8"

var projectLineRe = regexp.MustCompile(`^Project\("\{([0-9A-Fa-f-]+)\}"\)\s*=\s*"([^"]*)"\s*,\s*"([^"]*)"`)

var skipDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	".vs":          {},
	".idea":        {},
	"node_modules": {},
	"packages":     {},
	"TestResults":  {},
}

// Options controls source file selection.
type Options struct {
	// Exclude holds doublestar patterns matched against root-relative,
	// slash-separated paths.
	Exclude []string
	// MaxFileSize skips larger files. Zero means no limit.
	MaxFileSize int64
	Logger      *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Project is one project entry of a solution.
type Project struct {
	Name     string
	Assembly string
	Path     string // Relative to the layout root, slash-separated
	// Compilable is false for non-C# project types listed in a solution.
	Compilable bool
	Files      []string // Relative to the layout root, slash-separated, sorted

	sel selection
}

// Layout is the discovered shape of a solution.
type Layout struct {
	Root     string // Absolute directory all paths are relative to
	Solution string // The .sln file, relative to Root; "" without one
	Projects []Project
}

// Solution discovers the projects reachable from path, which may be a .sln
// file, a .csproj file or a directory. A directory with exactly one .sln file
// uses it; otherwise every .csproj below it is a project.
func Solution(target string, opts Options) (*Layout, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", target, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}

	var layout *Layout
	switch {
	case info.IsDir():
		layout, err = fromDirectory(abs, opts)
	case strings.EqualFold(filepath.Ext(abs), ".sln"):
		layout, err = fromSolutionFile(abs, opts)
	case strings.EqualFold(filepath.Ext(abs), ".csproj"):
		layout = &Layout{Root: filepath.Dir(abs)}
		var p Project
		if p, err = readProject(layout.Root, filepath.Base(abs)); err == nil {
			layout.Projects = []Project{p}
		}
	default:
		return nil, fmt.Errorf("%s: not a solution, project or directory", target)
	}
	if err != nil {
		return nil, err
	}
	if len(layout.Projects) == 0 {
		return nil, fmt.Errorf("%s: %w", target, ErrNoProjects)
	}

	if err := collectSources(layout, opts); err != nil {
		return nil, err
	}
	return layout, nil
}

func fromDirectory(root string, opts Options) (*Layout, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var solutions []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".sln") {
			solutions = append(solutions, e.Name())
		}
	}
	if len(solutions) == 1 {
		return fromSolutionFile(filepath.Join(root, solutions[0]), opts)
	}
	if len(solutions) > 1 {
		opts.logger().Debug("several solutions found, scanning projects instead", "root", root, "solutions", solutions)
	}

	layout := &Layout{Root: root}
	gi := loadGitignore(root)
	err = filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}
		name := d.Name()
		if d.IsDir() {
			if p != root && skipDir(name) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(name), ".csproj") {
			return nil
		}
		rel, err := relSlash(root, p)
		if err != nil || (gi != nil && gi.MatchesPath(rel)) {
			return nil
		}
		proj, err := readProject(root, rel)
		if err != nil {
			opts.logger().Warn("skipping project", "path", rel, "error", err)
			return nil
		}
		layout.Projects = append(layout.Projects, proj)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(layout.Projects, func(i, j int) bool {
		return layout.Projects[i].Path < layout.Projects[j].Path
	})
	return layout, nil
}

func fromSolutionFile(slnPath string, opts Options) (*Layout, error) {
	f, err := os.Open(slnPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	layout := &Layout{Root: filepath.Dir(slnPath), Solution: filepath.Base(slnPath)}
	seen := make(map[string]struct{})
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		m := projectLineRe.FindStringSubmatch(strings.TrimSpace(sc.Text()))
		if m == nil || strings.EqualFold(m[1], solutionFolderType) {
			continue
		}
		rel := path.Clean(strings.ReplaceAll(m[3], `\`, "/"))
		ext := strings.ToLower(path.Ext(rel))
		if !strings.HasSuffix(ext, "proj") {
			continue
		}
		if _, dup := seen[rel]; dup {
			continue
		}
		seen[rel] = struct{}{}

		if ext != ".csproj" {
			layout.Projects = append(layout.Projects, Project{Name: m[2], Assembly: m[2], Path: rel})
			continue
		}
		proj, err := readProject(layout.Root, rel)
		if err != nil {
			opts.logger().Warn("skipping project", "project", m[2], "path", rel, "error", err)
			continue
		}
		proj.Name = m[2]
		layout.Projects = append(layout.Projects, proj)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", slnPath, err)
	}
	return layout, nil
}

// csproj is the subset of an MSBuild project file that selects sources.
type csproj struct {
	Sdk            string `xml:"Sdk,attr"`
	PropertyGroups []struct {
		AssemblyName string `xml:"AssemblyName"`
	} `xml:"PropertyGroup"`
	ItemGroups []struct {
		Compile []struct {
			Include string `xml:"Include,attr"`
			Remove  string `xml:"Remove,attr"`
		} `xml:"Compile"`
	} `xml:"ItemGroup"`
}

// selection is the Compile item configuration of one project.
type selection struct {
	includes []string // explicit Compile items of non-SDK projects
	removes  []string
}

func readProject(root, rel string) (Project, error) {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return Project{}, err
	}
	var cp csproj
	if err := xml.Unmarshal(data, &cp); err != nil {
		return Project{}, fmt.Errorf("parsing %s: %w", rel, err)
	}

	base := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	p := Project{Name: base, Assembly: base, Path: rel, Compilable: true}
	for _, pg := range cp.PropertyGroups {
		if name := strings.TrimSpace(pg.AssemblyName); name != "" && !strings.Contains(name, "$(") {
			p.Assembly = name
			break
		}
	}
	for _, ig := range cp.ItemGroups {
		for _, c := range ig.Compile {
			if c.Include != "" && cp.Sdk == "" {
				p.sel.includes = append(p.sel.includes, splitItems(c.Include)...)
			}
			if c.Remove != "" {
				p.sel.removes = append(p.sel.removes, splitItems(c.Remove)...)
			}
		}
	}
	return p, nil
}

// splitItems splits an MSBuild item list into slash-separated patterns.
func splitItems(spec string) []string {
	var out []string
	for _, item := range strings.Split(spec, ";") {
		item = strings.TrimSpace(strings.ReplaceAll(item, `\`, "/"))
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// collectSources fills in the source files of every compilable project.
func collectSources(layout *Layout, opts Options) error {
	gitFiles := gitLsFiles(layout.Root)
	var gi *ignore.GitIgnore
	if gitFiles == nil {
		gi = loadGitignore(layout.Root)
	}
	log := opts.logger()

	for i := range layout.Projects {
		p := &layout.Projects[i]
		if !p.Compilable {
			continue
		}
		dir := path.Dir(p.Path)
		start := filepath.Join(layout.Root, filepath.FromSlash(dir))

		err := filepath.WalkDir(start, func(fp string, d os.DirEntry, err error) error {
			if err != nil {
				return nil // skip errors
			}
			rel, err := relSlash(layout.Root, fp)
			if err != nil {
				return nil
			}
			name := d.Name()

			if d.IsDir() {
				if fp == start {
					return nil
				}
				if skipDir(name) {
					return filepath.SkipDir
				}
				if ownsProject(fp) {
					return filepath.SkipDir
				}
				return nil
			}

			if strings.HasPrefix(name, ".") || d.Type()&os.ModeSymlink != 0 {
				return nil
			}
			if lang.ForExtension(filepath.Ext(name)) != "csharp" {
				return nil
			}
			if gitFiles != nil {
				if _, ok := gitFiles[rel]; !ok {
					return nil
				}
			} else if gi != nil && gi.MatchesPath(rel) {
				return nil
			}
			if matchAny(opts.Exclude, rel) {
				return nil
			}
			local := strings.TrimPrefix(rel, dir+"/")
			if dir == "." {
				local = rel
			}
			if len(p.sel.includes) > 0 && !matchAny(p.sel.includes, local) {
				return nil
			}
			if matchAny(p.sel.removes, local) {
				return nil
			}
			if opts.MaxFileSize > 0 {
				info, err := d.Info()
				if err != nil {
					return nil
				}
				if info.Size() > opts.MaxFileSize {
					log.Warn("skipping large file", "path", rel, "size", info.Size(), "limit", opts.MaxFileSize)
					return nil
				}
			}

			p.Files = append(p.Files, rel)
			return nil
		})
		if err != nil {
			return fmt.Errorf("scanning %s: %w", p.Path, err)
		}
		sort.Strings(p.Files)
	}
	return nil
}

// ownsProject reports whether dir directly contains a .csproj file.
func ownsProject(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".csproj") {
			return true
		}
	}
	return false
}

func skipDir(name string) bool {
	_, skip := skipDirs[name]
	return skip || strings.HasPrefix(name, ".")
}

func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func relSlash(root, p string) (string, error) {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func gitLsFiles(root string) map[string]struct{} {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
