package querycache_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/goforj/querycache"
)

func ExampleSession() {
	ctx := context.Background()
	s := querycache.NewSession("postgresql://localhost:5432/mydb", nil)

	_, err := s.Query(ctx, "SELECT 1")
	fmt.Println(errors.Is(err, querycache.ErrNotConnected))

	ok, _ := s.Connect(ctx)
	fmt.Println(ok)

	first, _ := s.Query(ctx, "SELECT * FROM users WHERE id = ?", " 42 ", "", "active ")
	second, _ := s.Query(ctx, "SELECT * FROM users WHERE id = ?", " 42 ", "", "active ")
	fmt.Println(first.Params, first.RowsAffected)
	fmt.Println(first.Timestamp.Equal(second.Timestamp))
	// Output:
	// true
	// true
	// [42 active] 2
	// true
}

func ExampleNewStoreWith() {
	ctx := context.Background()
	store := querycache.NewStoreWith(ctx, querycache.DriverBounded, querycache.WithMaxEntries(128))
	fmt.Println(store.Driver())
	// Output: bounded
}

func ExampleCleanParams() {
	fmt.Printf("%q\n", querycache.CleanParams([]string{" 42 ", "", "  "}))
	// Output: ["42" ""]
}
