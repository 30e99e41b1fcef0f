package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/flopp/go-findfont"
	"github.com/npillmayer/kerning/core"
	"github.com/npillmayer/kerning/core/font"
	"github.com/npillmayer/kerning/engine/groupedit"
	"github.com/npillmayer/kerning/engine/kerning"
	"github.com/npillmayer/kerning/engine/transform"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"
)

// tracer traces with key 'kern.cli'
func tracer() tracing.Trace {
	return tracing.Select("kern.cli")
}

func main() {
	initDisplay()

	// set up logging
	tlevel := flag.String("trace", "Info", "Trace level [Debug|Info|Error]")
	fontname := flag.String("font", "", "Font to load (file or system font name)")
	groupfile := flag.String("groups", "", "Group file to load")
	featfile := flag.String("kern", "", "Kerning feature file to load")
	flag.Parse()
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter":      "go",
		"trace.kern.cli":       *tlevel,
		"trace.kern.store":     *tlevel,
		"trace.kern.groups":    *tlevel,
		"trace.kern.edit":      *tlevel,
		"trace.kern.transform": *tlevel,
		"trace.kern.feature":   *tlevel,
		"trace.kern.fonts":     *tlevel,
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Printf("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())
	pterm.Info.Println("Welcome to the kerning CLI") // colored welcome message
	tracer().Infof("Trace level is %s", *tlevel)
	//
	// set up REPL
	repl, err := readline.New("kern > ")
	if err != nil {
		tracer().Errorf(err.Error())
		os.Exit(3)
	}
	intp := &Intp{repl: repl, store: kerning.NewStore(nil), matcher: transform.Glob{}}
	//
	// load initial data
	if *fontname != "" {
		if err := intp.loadFont(*fontname); err != nil {
			core.UserError(err)
			os.Exit(4)
		}
	}
	if *groupfile != "" {
		if err := intp.loadGroups(*groupfile); err != nil {
			core.UserError(err)
			os.Exit(4)
		}
	}
	if *featfile != "" {
		if err := intp.importFeature(*featfile); err != nil {
			core.UserError(err)
			os.Exit(4)
		}
	}
	//
	// start receiving commands
	pterm.Info.Println("Quit with <ctrl>D") // inform user how to stop the CLI
	intp.REPL()                              // go into interactive mode
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.EnableDebugMessages()
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// Intp is our interpreter object
type Intp struct {
	repl    *readline.Instance
	font    *font.ScalableFont
	store   *kerning.Store
	tx      *groupedit.Transaction
	matcher transform.PatternMatcher
}

// model returns the font model, if a font has been loaded.
func (intp *Intp) model() font.Model {
	if intp.font == nil {
		return nil
	}
	return intp.font
}

// REPL starts interactive mode.
func (intp *Intp) REPL() {
	for {
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		cmd := parseCommand(line)
		quit, err := intp.execute(cmd)
		if err != nil {
			pterm.Error.Println(err.Error())
			continue
		}
		if quit {
			break
		}
	}
	if intp.tx != nil {
		intp.tx.Cancel()
		pterm.Info.Println("open group transaction cancelled")
	}
	pterm.Info.Println("Good bye!")
}

// loadFont loads a font from a file or, if no such file exists, looks for a
// system font with that name. "fallback" loads the built-in fallback font.
func (intp *Intp) loadFont(name string) error {
	if name == "fallback" {
		intp.font = font.FallbackFont()
		pterm.Printfln("using fallback font %s", intp.font.Fontname)
		return nil
	}
	path := name
	if _, err := os.Stat(path); err != nil {
		if path, err = findfont.Find(name); err != nil {
			return core.WrapError(err, core.EMISSING, "font %s not found", name)
		}
		tracer().Debugf("%s is a system font", name)
	}
	f, err := font.LoadOpenTypeFont(path)
	if err != nil {
		return core.WrapError(err, core.EINVALID, "cannot load font %s", path)
	}
	intp.font = f
	tracer().Infof("loaded font %s (%s)", f.Fontname, font.NormalizeFontname(f.Fontname))
	pterm.Printfln("font %s has %d glyphs", f.Fontname, len(f.GlyphNames()))
	return nil
}
