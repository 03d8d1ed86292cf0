package tree

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(TestInput) error { return nil }

func TestBuild_AssignsIndicesInDeclarationOrder(t *testing.T) {
	root, err := Build("root", func(b *Builder) {
		b.It("a", noop)
		b.Describe("first", func(b *Builder) {
			b.It("b", noop)
			b.It("c", noop)
		})
		b.Describe("second", func(b *Builder) {
			b.Describe("nested", func(b *Builder) {
				b.It("d", noop)
			})
		})
		b.It("e", noop)
	})
	require.NoError(t, err)

	require.Len(t, root.Tests, 2)
	assert.Equal(t, 0, root.Tests[0].Index)
	assert.Equal(t, 1, root.Tests[1].Index)
	assert.Equal(t, "e", root.Tests[1].Description)

	require.Len(t, root.Children, 2)
	assert.Equal(t, 0, root.Children[0].Index)
	assert.Equal(t, 1, root.Children[1].Index)
	assert.Same(t, root, root.Children[0].Parent)
	assert.Same(t, root.Children[1], root.Children[1].Children[0].Parent)
	assert.Equal(t, 1, root.Children[0].Tests[1].Index)
}

func TestBuild_AttachesHooksToInnermostScope(t *testing.T) {
	root, err := Build("root", func(b *Builder) {
		b.BeforeAll(noop)
		b.BeforeEach(noop)
		b.Describe("child", func(b *Builder) {
			b.BeforeEach(noop)
			b.AfterEach(func(FinishedTestContext) error { return nil })
			b.AfterAll(func() error { return nil })
		})
		b.AfterAll(func() error { return nil })
	})
	require.NoError(t, err)

	assert.Len(t, root.BeforeAll, 1)
	assert.Len(t, root.BeforeEach, 1)
	assert.Len(t, root.AfterEach, 0)
	assert.Len(t, root.AfterAll, 1)

	child := root.Children[0]
	assert.Len(t, child.BeforeAll, 0)
	assert.Len(t, child.BeforeEach, 1)
	assert.Len(t, child.AfterEach, 1)
	assert.Len(t, child.AfterAll, 1)
}

func TestBuild_Options(t *testing.T) {
	root, err := Build("root", func(b *Builder) {
		b.Describe("only", func(b *Builder) {
			b.It("t", noop, Skip(), WithTimeout(10*time.Millisecond))
		}, Only())
	}, WithTimeout(time.Second))
	require.NoError(t, err)

	assert.Equal(t, time.Second, root.Timeout)
	assert.True(t, root.Children[0].IsOnly)
	assert.False(t, root.Children[0].IsSkipped)
	tb := root.Children[0].Tests[0]
	assert.True(t, tb.IsSkipped)
	assert.Equal(t, 10*time.Millisecond, tb.Timeout)
}

func TestBuild_RecordsCallerLocation(t *testing.T) {
	root, err := Build("root", func(b *Builder) {
		b.It("t", noop)
	})
	require.NoError(t, err)
	assert.Contains(t, root.Tests[0].File, "builder_test.go")
	assert.Positive(t, root.Tests[0].Line)
}

func TestBuild_NilPopulate(t *testing.T) {
	root, err := Build("root", nil)
	require.Error(t, err)
	assert.Nil(t, root)
	assert.True(t, IsConstructionError(err))
}

func TestBuild_MisuseIsReported(t *testing.T) {
	tests := []struct {
		name     string
		populate func(*Builder)
		code     ConstructionErrorCode
	}{
		{
			name:     "nil body",
			populate: func(b *Builder) { b.It("t", nil) },
			code:     ErrCodeNilCallback,
		},
		{
			name:     "nil hook",
			populate: func(b *Builder) { b.BeforeEach(nil) },
			code:     ErrCodeNilCallback,
		},
		{
			name:     "nil describe body",
			populate: func(b *Builder) { b.Describe("x", nil) },
			code:     ErrCodeNilCallback,
		},
		{
			name:     "zero timeout",
			populate: func(b *Builder) { b.It("t", noop, WithTimeout(0)) },
			code:     ErrCodeInvalidTimeout,
		},
		{
			name: "nested misuse",
			populate: func(b *Builder) {
				b.Describe("outer", func(b *Builder) {
					b.AfterAll(nil)
				})
			},
			code: ErrCodeNilCallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := Build("root", tt.populate)
			require.Error(t, err)
			assert.Nil(t, root)

			var ce *ConstructionError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.code, ce.Code)
		})
	}
}

func TestBuild_InvalidRootOption(t *testing.T) {
	_, err := Build("root", func(*Builder) {}, WithTimeout(-time.Second))
	var ce *ConstructionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrCodeInvalidTimeout, ce.Code)
}

func TestBuild_NonConstructionPanicPropagates(t *testing.T) {
	assert.PanicsWithValue(t, "boom", func() {
		_, _ = Build("root", func(*Builder) { panic("boom") })
	})
}

func TestBuilder_RejectsRegistrationAfterBuild(t *testing.T) {
	var leaked *Builder
	_, err := Build("root", func(b *Builder) { leaked = b })
	require.NoError(t, err)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		ce, ok := r.(*ConstructionError)
		require.True(t, ok)
		assert.Equal(t, ErrCodeSealed, ce.Code)
	}()
	leaked.It("late", noop)
}

func TestBuilder_RejectsAsynchronousPopulate(t *testing.T) {
	started := make(chan struct{})
	var wg sync.WaitGroup
	var recovered any

	root, err := Build("root", func(b *Builder) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { recovered = recover() }()
			<-started
			b.It("async", noop)
		}()
	})
	require.NoError(t, err)
	close(started)
	wg.Wait()

	ce, ok := recovered.(*ConstructionError)
	require.True(t, ok, "late registration must panic with a construction error")
	assert.Equal(t, ErrCodeSealed, ce.Code)
	assert.Empty(t, root.Tests)
}

func TestBuilder_ZeroValueHasNoScope(t *testing.T) {
	var b Builder
	defer func() {
		ce, ok := recover().(*ConstructionError)
		require.True(t, ok)
		assert.Equal(t, ErrCodeNoScope, ce.Code)
	}()
	b.BeforeAll(noop)
}

func TestEach(t *testing.T) {
	var seen []int
	root, err := Build("root", func(b *Builder) {
		Each(b, []int{1, 2, 3}, "adds %v", func(v int, in TestInput) error {
			seen = append(seen, v)
			return nil
		})
		EachFunc(b, []string{"x"}, func(s string) string { return "named " + s }, func(string, TestInput) error {
			return nil
		}, Only())
	})
	require.NoError(t, err)

	require.Len(t, root.Tests, 4)
	assert.Equal(t, "adds 1", root.Tests[0].Description)
	assert.Equal(t, "adds 3", root.Tests[2].Description)
	assert.Equal(t, "named x", root.Tests[3].Description)
	assert.True(t, root.Tests[3].IsOnly)

	for _, tb := range root.Tests[:3] {
		require.NoError(t, tb.Body(TestInput{}))
	}
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestDescribeEach(t *testing.T) {
	root, err := Build("root", func(b *Builder) {
		DescribeEach(b, []string{"sqlite", "memory"}, "backend %s", func(b *Builder, name string) {
			b.It("works with "+name, noop)
		})
	})
	require.NoError(t, err)

	require.Len(t, root.Children, 2)
	assert.Equal(t, "backend sqlite", root.Children[0].Description)
	assert.Equal(t, "works with memory", root.Children[1].Tests[0].Description)
	assert.Equal(t, 1, root.Children[1].Index)
}

func TestBuild_NormalizesDescriptions(t *testing.T) {
	// "é" as e + combining acute accent.
	root, err := Build("cafe\u0301", func(b *Builder) {
		b.It("t", noop)
	})
	require.NoError(t, err)
	assert.Equal(t, "caf\u00e9", root.Description)
}
