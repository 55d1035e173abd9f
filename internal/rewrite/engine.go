// Package rewrite turns the <img> tags of rendered HTML into lazy-loading
// tags.
//
// A rewritten tag gets the lazy-load CSS classes, a placeholder in src and
// the original URL in data-src, which the storefront script swaps back in
// when the image scrolls into view. Everything outside the matched tags is
// left byte for byte.
//
// Substitution is by tag text, not position: identical tag strings anywhere
// in the document all receive the replacement computed for the first one.
package rewrite

import (
	"os"
	"strings"

	"github.com/ironsheep/image-lazyload/internal/config"
	"github.com/ironsheep/image-lazyload/internal/imaging"
	"github.com/ironsheep/image-lazyload/internal/logger"
	"github.com/ironsheep/image-lazyload/internal/placeholder"
	"github.com/ironsheep/image-lazyload/internal/tag"
)

// Class markers read by the client-side lazy-load script.
const (
	IconClass         = "mplazyload mplazyload-icon mplazyload-cms"
	PlaceholderPrefix = "mplazyload mplazyload-"
)

// DefaultImage is the built-in placeholder: a 1x1 transparent GIF.
const DefaultImage = "data:image/gif;base64,R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7"

// Engine rewrites HTML. It holds no per-document state and is safe for
// concurrent use.
type Engine struct {
	log     logger.Logger
	matOpts []placeholder.Option
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithTranscoder overrides the placeholder transcoder.
func WithTranscoder(fn placeholder.TranscodeFunc) Option {
	return func(e *Engine) { e.matOpts = append(e.matOpts, placeholder.WithTranscoder(fn)) }
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{log: logger.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	e.matOpts = append(e.matOpts, placeholder.WithLogger(e.log))
	return e
}

// Rewrite returns html with its eligible <img> tags rewritten.
func (e *Engine) Rewrite(html string, cfg *config.Config, store Store) string {
	out, _ := e.RewriteWithReport(html, cfg, store)
	return out
}

// pass carries the settings resolved once per document.
type pass struct {
	cfg          *config.Config
	baseURL      string
	class        string
	defaultImage string
	materializer *placeholder.Materializer
}

// RewriteWithReport is Rewrite plus one Decision per matched tag, in
// document order. With lazy loading disabled html is returned unchanged and
// the report is empty.
func (e *Engine) RewriteWithReport(html string, cfg *config.Config, store Store) (string, []Decision) {
	if !cfg.General.Enabled || !cfg.General.LazyLoad {
		return html, nil
	}

	p := e.newPass(cfg, store)
	var (
		decisions []Decision
		search    []string
		replaced  []string
	)
	for _, img := range tag.FindAll(html) {
		d := e.decide(p, img)
		decisions = append(decisions, d)
		if d.Action == ActionRewrite {
			search = append(search, img)
			replaced = append(replaced, d.Replacement)
		} else {
			e.log.Debug("img tag skipped", logger.String("tag", img), logger.String("reason", string(d.Reason)))
		}
	}

	// Sequential, like applying each pair in turn: later pairs see the
	// output of earlier ones.
	for i := range search {
		html = strings.ReplaceAll(html, search[i], replaced[i])
	}
	return html, decisions
}

func (e *Engine) newPass(cfg *config.Config, store Store) *pass {
	p := &pass{cfg: cfg, baseURL: store.BaseURL()}

	if cfg.Loading.Type == config.LoadingIcon {
		p.class = IconClass
		p.defaultImage = DefaultImage
		return p
	}

	p.class = PlaceholderPrefix + string(cfg.Loading.PlaceholderType)
	if cfg.Loading.PlaceholderType == config.PlaceholderTransparent {
		p.defaultImage = DefaultImage
		return p
	}

	prefix := placeholder.URLPrefix(store.MediaURL(), cfg.Paths.CacheDir)
	p.materializer = placeholder.New(cfg.Paths.PublicRoot, cfg.Paths.CacheDir, prefix, e.matOpts...)
	return p
}

func (e *Engine) decide(p *pass, img string) Decision {
	src, err := tag.ExtractSrc(img)
	if err != nil {
		return skip(img, ReasonMissingSrc)
	}

	absPath := p.resolvePath(src)
	if fileExists(absPath) {
		dims, err := imaging.GetDimensions(absPath)
		if err != nil {
			e.log.Debug("image size unknown", logger.String("path", absPath), logger.Error(err))
		} else if dims.IsBelow(p.cfg.Loading.MinWidth, p.cfg.Loading.MinHeight) {
			return skip(img, ReasonTooSmall)
		}
	}

	if p.cfg.IsExcludeText(tag.ExtractAccessibilityText(img, p.cfg.AutoAltEnabled())) {
		return skip(img, ReasonExcludedText)
	}

	ph := p.defaultImage
	if p.materializer != nil {
		url, ok := p.materializer.Ensure(absPath)
		if ok {
			ph = url
		}
		e.log.Debug("placeholder resolved", logger.String("path", absPath), logger.Bool("ok", ok))
	}

	out := injectClass(img, p.class)
	out = strings.ReplaceAll(out, `src="`, `src="`+ph+`" data-src="`)

	if p.cfg.IsExcludeClass(tag.ExtractClassList(out)) {
		return skip(img, ReasonExcludedClass)
	}
	return Decision{Tag: img, Action: ActionRewrite, Replacement: out}
}

// resolvePath maps an image URL onto the filesystem under the public root.
func (p *pass) resolvePath(src string) string {
	rel := src
	if p.baseURL != "" {
		rel = strings.ReplaceAll(src, p.baseURL, "")
	}
	return placeholder.StripVersionAlias(p.cfg.Paths.PublicRoot + "/" + rel)
}

// injectClass prepends class to an existing class attribute or adds one.
func injectClass(img, class string) string {
	if strings.Contains(img, `class="`) {
		return strings.ReplaceAll(img, `class="`, `class="`+class+" ")
	}
	return strings.ReplaceAll(img, "<img", `<img class="`+class+`"`)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
