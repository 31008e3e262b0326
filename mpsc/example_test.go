package mpsc_test

import (
	"fmt"
	"slices"

	"github.com/kolkov/syncprim/mpsc"
)

func Example() {
	tx, rx := mpsc.New[string]()

	for _, word := range []string{"hello", "from", "three"} {
		worker := tx.Clone()
		go func() {
			defer worker.Close()
			worker.Send(word)
		}()
	}
	tx.Close()

	fmt.Println(slices.Sorted(rx.All()))
	// Output: [from hello three]
}
