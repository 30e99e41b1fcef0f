package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/npillmayer/kerning/core"
	"github.com/npillmayer/kerning/engine/feature"
	"github.com/npillmayer/kerning/engine/groupedit"
	"github.com/npillmayer/kerning/engine/groups"
	"github.com/npillmayer/kerning/engine/transform"
	"github.com/pterm/pterm"
)

// Command is a command line, split into a verb and its arguments.
type Command struct {
	verb string
	args []string
	rest string // unsplit text after the verb
}

func parseCommand(line string) Command {
	fields := strings.Fields(line)
	cmd := Command{verb: strings.ToLower(fields[0]), args: fields[1:]}
	cmd.rest = strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
	return cmd
}

func (cmd Command) arg(i int) string {
	if i < len(cmd.args) {
		return cmd.args[i]
	}
	return ""
}

func (cmd Command) need(n int) error {
	if len(cmd.args) < n {
		return core.Error(core.EINVALID, "%s needs %d arguments, type 'help %s'", cmd.verb, n, cmd.verb)
	}
	return nil
}

// parseKey reads '@name' as a group and everything else as a glyph.
func parseKey(s string) groups.Key {
	if strings.HasPrefix(s, "@") && len(s) > 1 {
		return groups.Group(s[1:])
	}
	return groups.Glyph(s)
}

func parsePair(l, r string) groups.Pair {
	return groups.P(parseKey(l), parseKey(r))
}

func parseSide(s string) (groups.Side, error) {
	switch strings.ToLower(s) {
	case "1", "side1", "left":
		return groups.Side1, nil
	case "2", "side2", "right":
		return groups.Side2, nil
	}
	return groups.Side1, core.Error(core.EINVALID, "not a side: %q", s)
}

func (intp *Intp) execute(cmd Command) (quit bool, err error) {
	tracer().Debugf("cmd = %s %v", cmd.verb, cmd.args)
	switch cmd.verb {
	case "quit", "exit":
		return true, nil
	case "help":
		help(cmd.arg(0))
	case "font":
		if err = cmd.need(1); err == nil {
			err = intp.loadFont(cmd.rest)
		}
	case "groups":
		err = intp.groupsCommand(cmd)
	case "import":
		if err = cmd.need(1); err == nil {
			err = intp.importFeature(cmd.arg(0))
		}
	case "export":
		err = intp.exportFeature(cmd)
	case "get", "set", "type", "break", "exceptions", "redundant", "list":
		err = intp.pairCommand(cmd)
	case "scale", "shift", "round", "threshold", "remove":
		err = intp.transformCommand(cmd)
	case "copy":
		err = intp.copyCommand(cmd)
	case "recipe":
		if err = cmd.need(1); err == nil {
			err = intp.runRecipe(cmd.arg(0))
		}
	case "begin", "newgroup", "addto", "removefrom", "dropgroup", "rename",
		"applygroups", "resolve", "accept", "commit", "cancel":
		err = intp.transactionCommand(cmd)
	default:
		err = core.Error(core.EINVALID, "unknown command %q, type 'help'", cmd.verb)
	}
	return false, err
}

// --- Files -----------------------------------------------------------------

func (intp *Intp) loadGroups(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return core.WrapError(err, core.EMISSING, "cannot open %s", path)
	}
	defer f.Close()
	ix, err := groups.ReadXML(f)
	if err != nil {
		return err
	}
	intp.store.Groups().Replace(ix)
	pterm.Printfln("loaded %d side1 and %d side2 groups", len(ix.Groups(groups.Side1)), len(ix.Groups(groups.Side2)))
	return nil
}

func (intp *Intp) groupsCommand(cmd Command) error {
	if err := cmd.need(1); err != nil {
		return err
	}
	switch cmd.arg(0) {
	case "load":
		if err := cmd.need(2); err != nil {
			return err
		}
		return intp.loadGroups(cmd.arg(1))
	case "save":
		if err := cmd.need(2); err != nil {
			return err
		}
		f, err := os.Create(cmd.arg(1))
		if err != nil {
			return core.WrapError(err, core.EINVALID, "cannot create %s", cmd.arg(1))
		}
		defer f.Close()
		return groups.WriteXML(f, intp.store.Groups())
	case "list":
		ix := intp.store.Groups()
		data := pterm.TableData{{"group", "side", "glyphs"}}
		for _, g := range ix.All() {
			data = append(data, []string{g.Name, g.Side.String(), strings.Join(g.Glyphs, " ")})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	case "find":
		if err := cmd.need(2); err != nil {
			return err
		}
		for _, g := range intp.store.Groups().GroupsWithPrefix(cmd.arg(1)) {
			pterm.Println(g)
		}
		return nil
	}
	return core.Error(core.EINVALID, "unknown groups command %q", cmd.arg(0))
}

func (intp *Intp) importFeature(path string) error {
	text, err := os.ReadFile(path)
	if err != nil {
		return core.WrapError(err, core.EMISSING, "cannot read %s", path)
	}
	res, err := feature.Parse(string(text))
	if err != nil {
		return err
	}
	if err := res.ApplyTo(intp.store); err != nil {
		return err
	}
	pterm.Printfln("imported %d kerning entries", intp.store.Len())
	return nil
}

// exportFeature handles 'export [file] [split]'.
func (intp *Intp) exportFeature(cmd Command) error {
	var opts feature.Options
	var path string
	for _, a := range cmd.args {
		if a == "split" {
			opts.SplitScripts = true
		} else {
			path = a
		}
	}
	text, err := feature.Compile(intp.store, intp.model(), opts)
	if err != nil {
		return err
	}
	if path == "" {
		pterm.Println(text)
		return nil
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return core.WrapError(err, core.EINVALID, "cannot write %s", path)
	}
	pterm.Printfln("kerning written to %s", path)
	return nil
}

// --- Pairs -----------------------------------------------------------------

func (intp *Intp) pairCommand(cmd Command) error {
	st := intp.store
	switch cmd.verb {
	case "list":
		data := pterm.TableData{{"pair", "value"}}
		for _, p := range st.Entries() {
			v, _ := st.Entry(p)
			data = append(data, []string{p.String(), strconv.Itoa(v)})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	case "redundant":
		removed := st.RemoveRedundantExceptions(nil)
		pterm.Printfln("removed %d redundant entries", len(removed))
		return nil
	}
	if err := cmd.need(2); err != nil {
		return err
	}
	p := parsePair(cmd.arg(0), cmd.arg(1))
	switch cmd.verb {
	case "get":
		q, v, ok := st.Resolve(p)
		if !ok {
			pterm.Printfln("%s = 0 (no entry)", p)
		} else {
			pterm.Printfln("%s = %d (from %s)", p, v, q)
		}
	case "set":
		if err := cmd.need(3); err != nil {
			return err
		}
		v, err := strconv.Atoi(cmd.arg(2))
		if err != nil {
			return core.WrapError(err, core.EINVALID, "not a kerning value: %q", cmd.arg(2))
		}
		st.Set(p, v)
	case "type":
		l, r := st.PairType(p)
		pterm.Printfln("%s is %s, %s", p, l, r)
	case "break":
		if q, ok := st.BreakException(p); ok {
			pterm.Printfln("removed %s, %s = %d", q, p, st.Get(p))
		} else {
			pterm.Printfln("%s has no entry", p)
		}
	case "exceptions":
		pterm.Printfln("possible: %v", st.PossibleExceptions(p))
		pterm.Printfln("conflicting: %v", st.ConflictingExceptions(p))
	}
	return nil
}

// --- Transformations -------------------------------------------------------

// transformCommand handles 'scale 0.9 <pattern>', 'round 5 <pattern>' etc.
// The pattern is the rest of the line.
func (intp *Intp) transformCommand(cmd Command) error {
	st := intp.store
	pattern := cmd.rest
	var num string
	if cmd.verb != "remove" {
		if err := cmd.need(2); err != nil {
			return err
		}
		num = cmd.arg(0)
		pattern = strings.TrimSpace(strings.TrimPrefix(cmd.rest, num))
	}
	pairs, err := transform.SelectPairs(st, intp.matcher, pattern)
	if err != nil {
		return err
	}
	var res *transform.Result
	switch cmd.verb {
	case "scale":
		f, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return core.WrapError(err, core.EINVALID, "not a factor: %q", num)
		}
		res = transform.Scale(st, pairs, f)
	case "remove":
		res = transform.Remove(st, pairs)
	default:
		n, err := strconv.Atoi(num)
		if err != nil {
			return core.WrapError(err, core.EINVALID, "not a number: %q", num)
		}
		switch cmd.verb {
		case "shift":
			res = transform.Shift(st, pairs, n)
		case "round":
			res, err = transform.Round(st, pairs, n, true)
		case "threshold":
			res, err = transform.Threshold(st, pairs, n, true)
		}
		if err != nil {
			return err
		}
	}
	pterm.Printfln("%s: %d of %d entries changed", cmd.verb, res.Apply(st), len(pairs))
	return nil
}

// copyCommand handles 'copy side1 A,B A.sc,B.sc [side2 O Q]'.
func (intp *Intp) copyCommand(cmd Command) error {
	if len(cmd.args) != 3 && len(cmd.args) != 6 {
		return core.Error(core.EINVALID, "usage: copy side src,.. repl,.. [side src,.. repl,..]")
	}
	var cs transform.CopySpec
	for i := 0; i < len(cmd.args); i += 3 {
		side, err := parseSide(cmd.args[i])
		if err != nil {
			return err
		}
		src, repl := strings.Split(cmd.args[i+1], ","), strings.Split(cmd.args[i+2], ",")
		if side == groups.Side1 {
			cs.Side1Source, cs.Side1Replacement = src, repl
		} else {
			cs.Side2Source, cs.Side2Replacement = src, repl
		}
	}
	res, err := transform.Copy(intp.store, intp.store.Entries(), cs)
	if res != nil {
		printReport(res.Report)
	}
	if err != nil {
		return err
	}
	pterm.Printfln("copied %d entries", res.Apply(intp.store))
	return nil
}

func printReport(r *transform.CopyReport) {
	for _, m := range r.Matched {
		pterm.Printfln("  %s  %s", m.Side, m)
	}
	for c, msgs := range r.Warnings {
		for _, msg := range msgs {
			pterm.Warning.Printfln("%s: %s", c, msg)
		}
	}
	for c, msgs := range r.Errors {
		for _, msg := range msgs {
			pterm.Error.Printfln("%s: %s", c, msg)
		}
	}
}

func (intp *Intp) runRecipe(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return core.WrapError(err, core.EMISSING, "cannot open %s", path)
	}
	defer f.Close()
	recipe, err := transform.LoadRecipe(f)
	if err != nil {
		return err
	}
	results, err := recipe.Run(intp.store, intp.matcher)
	for i, res := range results {
		pterm.Printfln("step %d (%s): %d changes", i+1, recipe.Steps[i].Op, res.Len())
	}
	return err
}

// --- Group transactions ----------------------------------------------------

func (intp *Intp) transactionCommand(cmd Command) error {
	if cmd.verb == "begin" {
		if intp.tx != nil {
			return core.Error(core.EPOLICY, "a group transaction is already open")
		}
		intp.tx = groupedit.Begin(intp.store, intp.model())
		pterm.Info.Println("group transaction started")
		return nil
	}
	tx := intp.tx
	if tx == nil {
		return core.Error(core.EPOLICY, "no open group transaction, use 'begin'")
	}
	var change groupedit.Change
	var err error
	switch cmd.verb {
	case "newgroup":
		if err = cmd.need(2); err != nil {
			return err
		}
		side, err := parseSide(cmd.arg(0))
		if err != nil {
			return err
		}
		change, err = tx.NewGroup(side, cmd.arg(1), cmd.args[2:])
		if err != nil {
			return err
		}
	case "addto":
		if err = cmd.need(2); err == nil {
			change, err = tx.AddToGroup(cmd.arg(0), cmd.args[1:])
		}
	case "removefrom":
		if err = cmd.need(2); err == nil {
			change, err = tx.RemoveFromGroup(cmd.arg(0), cmd.args[1:])
		}
	case "dropgroup":
		if err = cmd.need(1); err == nil {
			change, err = tx.RemoveGroup(cmd.arg(0), cmd.arg(1) == "decompose")
		}
	case "rename":
		if err = cmd.need(2); err == nil {
			change, err = tx.RenameGroup(cmd.arg(0), cmd.arg(1))
		}
	case "applygroups":
		records, open := tx.ApplyGroups()
		printRecords(records)
		if open {
			pterm.Warning.Println("conflicts need a decision: 'resolve' or 'accept'")
		}
	case "resolve":
		err = intp.resolve(cmd)
	case "accept":
		tx.AcceptDefaults()
		printRecords(tx.Records())
	case "commit":
		change, err = tx.ApplyKerning()
		if err == nil {
			intp.tx = nil
			pterm.Info.Println("group transaction committed")
		}
	case "cancel":
		tx.Cancel()
		intp.tx = nil
		pterm.Info.Println("group transaction cancelled")
	}
	if err != nil {
		return err
	}
	if !change.IsEmpty() {
		pterm.Printfln("changed groups: %v, glyphs: %v", change.Groups, change.Glyphs)
	}
	return nil
}

// resolve handles 'resolve l r sl sr group|exception|follow'.
func (intp *Intp) resolve(cmd Command) error {
	if err := cmd.need(5); err != nil {
		return err
	}
	var res groupedit.Resolution
	switch cmd.arg(4) {
	case "group":
		res = groupedit.GroupValue
	case "exception":
		res = groupedit.Exception
	case "follow":
		res = groupedit.FollowGroup
	default:
		return core.Error(core.EINVALID, "resolution must be group, exception or follow")
	}
	return intp.tx.SetResolution(parsePair(cmd.arg(0), cmd.arg(1)), parsePair(cmd.arg(2), cmd.arg(3)), res)
}

func printRecords(records []*groupedit.Record) {
	data := pterm.TableData{{"super-pair", "pair", "value", "resolution", "conflict"}}
	for _, rec := range records {
		for _, p := range rec.SortedPairs() {
			sub := rec.Pairs[p]
			value := strconv.Itoa(sub.Value)
			if sub.Implied {
				value += " (implied)"
			}
			data = append(data, []string{rec.SuperPair.String(), p.String(), value,
				sub.Resolution.String(), fmt.Sprintf("%v", rec.HaveConflict)})
		}
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func help(topic string) {
	tracer().Infof("help %v", topic)
	switch strings.ToLower(topic) {
	case "pattern", "patterns":
		pterm.Info.Println("Pair patterns")
		pterm.Println(`
	Patterns are shell file name patterns. Groups are matched with a leading '@'.
	A pattern for side1 and one for side2 are separated by a comma:
	    scale 0.9 A* , @*        all pairs of glyphs A... with any group
	    round 5 *                all pairs`)
	case "transaction", "begin", "resolve":
		pterm.Info.Println("Group transactions")
		pterm.Println(`
	begin                          start a transaction
	newgroup side name glyphs...   create a group
	addto / removefrom group glyphs...
	dropgroup group [decompose]    remove a group, keeping its kerning with 'decompose'
	rename group newname
	applygroups                    show how kerning follows the new groups
	resolve l r sl sr group|exception|follow
	accept                         accept the suggested resolutions
	commit | cancel`)
	default:
		pterm.Info.Println("Commands")
		pterm.Println(`
	font <file|name|fallback>      load a font
	groups load|save <file>        read or write a group file
	groups list | groups find <prefix>
	import <file>                  read kerning feature code
	export [file] [split]          write kerning feature code
	get|set|type|break|exceptions <left> <right> [value]
	list | redundant
	scale|shift|round|threshold <number> <pattern>
	remove <pattern>
	copy side1 A,B A.sc,B.sc [side2 ...]
	recipe <file.yaml>
	begin ...                      group transactions, see 'help transaction'
	quit`)
	}
}
