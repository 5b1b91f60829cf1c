package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksLikeCode(t *testing.T) {
	t.Run("go source", func(t *testing.T) {
		text := `package main

import "fmt"

func main() {
	fmt.Println("hello")
}`
		assert.True(t, LooksLikeCode(text))
	})

	t.Run("python source", func(t *testing.T) {
		text := `import os
from pathlib import Path

def load(path):
    return Path(path).read_text()`
		assert.True(t, LooksLikeCode(text))
	})

	t.Run("prose", func(t *testing.T) {
		text := "The quarterly report shows steady growth across all regions. " +
			"Customer satisfaction improved for the third consecutive quarter, " +
			"driven largely by faster support response times."
		assert.False(t, LooksLikeCode(text))
	})

	t.Run("prose mentioning code terms", func(t *testing.T) {
		text := "We decided to return the package to the vendor because the " +
			"interface was damaged during shipping and the class of product " +
			"did not match the public listing we had reviewed earlier."
		assert.False(t, LooksLikeCode(text))
	})

	t.Run("empty", func(t *testing.T) {
		assert.False(t, LooksLikeCode(""))
		assert.False(t, LooksLikeCode("   \n\t  "))
	})

	t.Run("short fragment", func(t *testing.T) {
		assert.False(t, LooksLikeCode("hello world"))
	})

	t.Run("statement-suffix lines", func(t *testing.T) {
		text := `x = compute(a, b);
y = transform(x);
emit(y);
done();`
		assert.True(t, LooksLikeCode(text))
	})
}
