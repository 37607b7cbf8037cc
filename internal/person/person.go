// Package person holds the demo's user record.
package person

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrNegativeAge is returned by New for an age below zero.
var ErrNegativeAge = errors.New("person: age must not be negative")

// Person is a named user with an age and contact email.
type Person struct {
	Name  string `json:"name" yaml:"name" toml:"name"`
	Age   int    `json:"age" yaml:"age" toml:"age"`
	Email string `json:"email" yaml:"email" toml:"email"`
}

// New validates age and returns a Person.
func New(name string, age int, email string) (Person, error) {
	if age < 0 {
		return Person{}, errors.Wrapf(ErrNegativeAge, "got %d", age)
	}
	return Person{Name: name, Age: age, Email: email}, nil
}

// Greet returns the person's self-introduction.
func (p Person) Greet() string {
	return fmt.Sprintf("Hello, my name is %s and I'm %d years old.", p.Name, p.Age)
}
