package core

import "sort"

// LibraryDef describes one entry of the closed include catalogue (§4.7/§6.1):
// the names it exports, the inline expansion text substituted for
// `(include <name>)` before handing source to the CLVM layer, and the set of
// feature flags whose presence in a builder's featuresUsed triggers its
// automatic inclusion.
type LibraryDef struct {
	Name     string
	Exports  []string
	Inline   string
	Features []string
}

// Catalogue is the fixed set of libraries the include engine recognizes.
var Catalogue = []LibraryDef{
	{
		Name:    "condition_codes.clib",
		Exports: conditionExportNames(),
		Inline:  conditionCodesInline,
		Features: append([]string{}, conditionExportNames()...),
	},
	{
		Name:     "utility_macros.clib",
		Exports:  []string{"assert", "or", "and"},
		Inline:   utilityMacrosInline,
		Features: []string{"assert", "or", "and"},
	},
	{
		Name:     "sha256tree.clib",
		Exports:  []string{"sha256tree"},
		Inline:   sha256treeInline,
		Features: []string{"sha256tree"},
	},
	{
		Name:     "curry-and-treehash.clinc",
		Exports:  []string{"curry_and_treehash", "tree_hash_of_apply"},
		Inline:   curryAndTreehashInline,
		Features: []string{"_curry_treehash"},
	},
	{
		Name:     "cat_truths.clib",
		Exports:  []string{"cat_truth_data_to_truth_struct", "my_amount_cat_truth"},
		Inline:   catTruthsInline,
		Features: []string{"_cat_truths"},
	},
	{
		Name:     "singleton_truths.clib",
		Exports:  []string{"singleton_truth_struct", "my_id_singleton_truth"},
		Inline:   singletonTruthsInline,
		Features: []string{"_singleton_truths"},
	},
	{
		Name:     "opcodes.clib",
		Exports:  []string{"CONS", "IF", "FIRST", "REST"},
		Inline:   opcodesInline,
		Features: []string{"_opcodes_constants"},
	},
}

func conditionExportNames() []string {
	names := make([]string, 0, len(conditionNames))
	for _, n := range conditionNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Inline expansion bodies are intentionally minimal placeholders for the
// fixed constants/macros each library exports; the external CLVM layer only
// needs them to resolve symbols referenced by generated code, not to
// re-derive their definitions from scratch.
const (
	conditionCodesInline = `(
  (defconstant AGG_SIG_UNSAFE 49) (defconstant AGG_SIG_ME 50)
  (defconstant CREATE_COIN 51) (defconstant RESERVE_FEE 52)
  (defconstant CREATE_COIN_ANNOUNCEMENT 60) (defconstant ASSERT_COIN_ANNOUNCEMENT 61)
  (defconstant CREATE_PUZZLE_ANNOUNCEMENT 62) (defconstant ASSERT_PUZZLE_ANNOUNCEMENT 63)
  (defconstant ASSERT_MY_COIN_ID 70) (defconstant ASSERT_MY_PARENT_ID 71)
  (defconstant ASSERT_MY_PUZZLEHASH 72) (defconstant ASSERT_MY_AMOUNT 73)
  (defconstant ASSERT_SECONDS_RELATIVE 80) (defconstant ASSERT_SECONDS_ABSOLUTE 81)
  (defconstant ASSERT_HEIGHT_RELATIVE 82) (defconstant ASSERT_HEIGHT_ABSOLUTE 83)
  (defconstant REMARK 1)
)`
	utilityMacrosInline = `(
  (defmacro assert items (if (r items) (list if (f items) (c assert (r items)) (q . (x))) (f items)))
  (defmacro or ARGS (if ARGS (qq (if (unquote (f ARGS)) 1 (unquote (c or (r ARGS))))) 0))
  (defmacro and ARGS (if ARGS (qq (if (unquote (f ARGS)) (unquote (c and (r ARGS))) ())) 1))
)`
	sha256treeInline = `(
  (defun sha256tree (TREE)
    (if (l TREE)
      (sha256 2 (sha256tree (f TREE)) (sha256tree (r TREE)))
      (sha256 1 TREE)))
)`
	curryAndTreehashInline = `(
  (defun curry_and_treehash (PUZZLE-MOD-HASH . CURRIED-ARG-HASHES) PUZZLE-MOD-HASH)
)`
	catTruthsInline       = `((defun-inline my_amount_cat_truth (TRUTHS) (f (r TRUTHS))))`
	singletonTruthsInline = `((defun-inline my_id_singleton_truth (TRUTHS) (f TRUTHS)))`
	opcodesInline         = `(
  (defconstant CONS 4) (defconstant IF 3) (defconstant FIRST 5) (defconstant REST 6)
)`
)

func libraryByName(name string) (LibraryDef, bool) {
	for _, l := range Catalogue {
		if l.Name == name {
			return l, true
		}
	}
	return LibraryDef{}, false
}

// featureToLibrary is the many-to-one map from a feature flag to the single
// canonical library that exports it. Built once from Catalogue so that
// adding a library only requires editing Catalogue above.
var featureToLibrary = func() map[string]string {
	m := make(map[string]string)
	for _, l := range Catalogue {
		for _, f := range l.Features {
			if _, dup := m[f]; dup {
				// A feature claimed by two libraries breaks minimality
				// (spec property 5); the first registration wins and the
				// catalogue itself must not allow this in practice.
				continue
			}
			m[f] = l.Name
		}
	}
	return m
}()

// DetermineRequiredIncludes returns the minimal set of libraries needed to
// resolve every feature in featuresUsed, preserving any manually-added
// includes. The result is deterministic (sorted) so callers get stable
// serializer output.
func DetermineRequiredIncludes(featuresUsed map[string]bool, manual []string) []string {
	set := make(map[string]bool)
	for _, m := range manual {
		set[m] = true
	}
	for feat, used := range featuresUsed {
		if !used {
			continue
		}
		if lib, ok := featureToLibrary[feat]; ok {
			set[lib] = true
		}
	}
	out := make([]string, 0, len(set))
	for lib := range set {
		out = append(out, lib)
	}
	sort.Strings(out)
	return out
}

// ExpandIncludes replaces every `(include <name>)` top-level form inside body
// with the library's inline expansion text, as a textual preprocessing pass
// ahead of handing source to the CLVM layer (§4.7). Unknown includes are left
// untouched and will fail at CLVM compile time.
func ExpandIncludes(source string, includes []string) string {
	out := source
	for _, name := range includes {
		lib, ok := libraryByName(name)
		if !ok {
			continue
		}
		directive := "(include " + name + ")"
		out = replaceAll(out, directive, lib.Inline)
	}
	return out
}

func replaceAll(s, old, new string) string {
	if old == "" {
		return s
	}
	var out []byte
	for {
		idx := indexOf(s, old)
		if idx < 0 {
			out = append(out, s...)
			break
		}
		out = append(out, s[:idx]...)
		out = append(out, new...)
		s = s[idx+len(old):]
	}
	return string(out)
}

func indexOf(s, substr string) int {
	n, m := len(s), len(substr)
	if m == 0 || m > n {
		return -1
	}
	for i := 0; i+m <= n; i++ {
		if s[i:i+m] == substr {
			return i
		}
	}
	return -1
}
