package nsmap_test

import (
	"encoding/json"
	"fmt"

	"github.com/jrhy/statecore/nsmap"
)

func ExampleMap_Apply() {
	ns := nsmap.Empty().
		Add("ex", "http://example.com/").
		Add("bad key", "http://ignored/")
	fmt.Println(ns.Len())
	fmt.Println(ns.Apply("http://example.com/page"))
	fmt.Println(ns.Expand("ex:page"))
	// Output:
	// 1
	// ex:page
	// http://example.com/page
}

func ExampleGenerate() {
	ns := nsmap.Generate([]string{
		"http://example.com/a",
		"http://example.com/b",
		"http://other.com/x",
	}, nil)
	b, _ := json.Marshal(ns)
	fmt.Println(string(b))
	// Output:
	// {"type":"namespace-map","namespaces":[["example","http://example.com/"],["other","http://other.com/"]]}
}
