package main

import (
	"context"
	"strings"

	"bytegraft/internal/provider"
)

// classPath builds a provider that searches every location in order. A
// location ending in .jar is read as an archive, anything else as a
// directory of class files.
func classPath(locations []string) (provider.BinaryProvider, []*provider.Jar) {
	var (
		chain provider.Chain
		jars  []*provider.Jar
	)

	for _, loc := range locations {
		if strings.HasSuffix(strings.ToLower(loc), ".jar") {
			j := provider.NewJar(loc)
			jars = append(jars, j)
			chain = append(chain, j)

			continue
		}

		chain = append(chain, provider.NewDir(loc))
	}

	return provider.NewCaching(chain), jars
}

// jarClasses lists the classes of every jar.
func jarClasses(ctx context.Context, jars []*provider.Jar) ([]string, error) {
	var names []string

	for _, j := range jars {
		list, err := j.Names(ctx)
		if err != nil {
			return nil, err
		}

		names = append(names, list...)
	}

	return names, nil
}
