package vm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/z33toolchain/z33/asm"
	"github.com/z33toolchain/z33/preprocessor"
	"github.com/z33toolchain/z33/resolver"
	"github.com/z33toolchain/z33/variation"
	"github.com/z33toolchain/z33/vm"
)

// The full pipeline: preprocess a program with includes and defines,
// assemble the expanded text, load the image, and run it.
func TestToolchain_EndToEnd(t *testing.T) {
	assert := assert.New(t)

	files := resolver.MapResolver{
		"main.s": "#include <config.s>\n" +
			"jmp start\n" +
			".addr 500\n" +
			"start:\n" +
			"ld COUNT, %a\n" +
			"loop:\n" +
			"cmp 1, %a\n" +
			"jge done\n" +
			"sub 1, %a\n" +
			"jmp loop\n" +
			"done:\n" +
			"st %a, [RESULT]\n" +
			"reset\n",
		"config.s": "#define COUNT 5\n#define RESULT 900\n",
	}

	ctx := preprocessor.NewContext(files)
	cm, _, err := preprocessor.Preprocess(ctx, "main.s")
	require.NoError(t, err)
	assert.Contains(cm.Modified, "ld 5, %a")
	assert.Contains(cm.Modified, "[900]")

	prog, err := asm.NewParser().Assemble(cm.Modified, 0)
	require.NoError(t, err)
	assert.Equal(500, prog.Labels["start"])

	r := vm.NewRunner(variation.Standard)
	require.NoError(t, r.Load(prog.Words()))
	require.NoError(t, r.Run())

	// The countdown left 1 in the result word before resetting.
	value, err := r.Proc.Memory.Read(900)
	assert.NoError(err)
	assert.Equal(uint32(1), value)
}
