// Command includelint checks core.Catalogue for collisions: two libraries
// claiming the same file name, the same exported symbol, or the same
// feature flag. A collision would make DetermineRequiredIncludes'
// feature-to-library lookup ambiguous, so this is run in CI the same way
// the opcode catalogue is linted.
package main

import (
	"fmt"
	"log"

	"coinscript/core"
)

func main() {
	seenNames := make(map[string]struct{})
	seenExports := make(map[string]string)
	seenFeatures := make(map[string]string)

	for _, lib := range core.Catalogue {
		if _, ok := seenNames[lib.Name]; ok {
			log.Fatalf("duplicate include name %q", lib.Name)
		}
		seenNames[lib.Name] = struct{}{}

		for _, exp := range lib.Exports {
			if owner, ok := seenExports[exp]; ok {
				log.Fatalf("export %q claimed by both %q and %q", exp, owner, lib.Name)
			}
			seenExports[exp] = lib.Name
		}

		for _, feat := range lib.Features {
			if owner, ok := seenFeatures[feat]; ok {
				log.Fatalf("feature flag %q claimed by both %q and %q", feat, owner, lib.Name)
			}
			seenFeatures[feat] = lib.Name
		}
	}

	fmt.Printf("checked %d includes, %d exports, %d feature flags, no collisions detected\n",
		len(core.Catalogue), len(seenExports), len(seenFeatures))
}
