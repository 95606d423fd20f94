package classfile_test

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cf "bytegraft/internal/classfile"
	"bytegraft/internal/classfile/classtest"
)

func sampleClass() *cf.ClassFile {
	loop, done, handler, end := &cf.Label{}, &cf.Label{}, &cf.Label{}, &cf.Label{}
	c1, c2, dflt := &cf.Label{}, &cf.Label{}, &cf.Label{}

	run := classtest.Method(cf.AccPublic, "run", "(IJLjava/lang/String;)I",
		loop,
		&cf.VarInsn{Op: cf.ILOAD, Var: 1},
		&cf.JumpInsn{Op: cf.IFEQ, Target: done},
		&cf.IincInsn{Var: 1, Incr: -1},
		&cf.IincInsn{Var: 300, Incr: 1000},
		&cf.VarInsn{Op: cf.ALOAD, Var: 0},
		&cf.FieldInsn{Op: cf.GETFIELD, Owner: "a/Sample", Name: "count", Desc: "I"},
		&cf.VarInsn{Op: cf.ISTORE, Var: 290},
		&cf.JumpInsn{Op: cf.GOTO, Target: loop},
		done,
		&cf.VarInsn{Op: cf.ILOAD, Var: 1},
		&cf.TableSwitchInsn{Min: 0, Max: 1, Default: dflt, Labels: []*cf.Label{c1, c2}},
		c1,
		&cf.LdcInsn{Value: "hello"},
		&cf.Insn{Op: cf.POP},
		&cf.LdcInsn{Value: int64(1) << 40},
		&cf.Insn{Op: cf.POP2},
		c2,
		&cf.LdcInsn{Value: cf.ObjectType("a/Other")},
		&cf.TypeInsn{Op: cf.CHECKCAST, Type: "[La/Other;"},
		&cf.Insn{Op: cf.POP},
		dflt,
		&cf.VarInsn{Op: cf.ILOAD, Var: 1},
		&cf.LookupSwitchInsn{Default: handler, Keys: []int32{-5, 10}, Labels: []*cf.Label{handler, end}},
		handler,
		&cf.VarInsn{Op: cf.ASTORE, Var: 5},
		end,
		&cf.IntInsn{Op: cf.SIPUSH, Operand: -1234},
		&cf.Insn{Op: cf.IRETURN},
	)
	run.Code.TryCatch = []cf.TryCatchBlock{{Start: loop, End: done, Handler: handler, Type: "java/lang/Exception"}}
	run.Code.LineNumbers = []cf.LineNumber{{Line: 7, Start: loop}, {Line: 9, Start: done}}
	run.Code.LocalVars = []cf.LocalVariable{{Name: "this", Desc: "La/Sample;", Start: loop, End: end, Index: 0}}
	run.Code.Frames = []cf.Frame{
		{At: loop, Locals: cf.InitialFrame("a/Sample", run)},
		{At: handler, Locals: cf.InitialFrame("a/Sample", run), Stack: []cf.VerificationType{{Tag: cf.ItemObject, Class: "java/lang/Throwable"}}},
	}
	run.Exceptions = []string{"java/io/IOException"}
	run.InvisibleAnnotations = []*cf.Annotation{{
		Desc: "La/Marker;",
		Values: []cf.ElementPair{
			{Name: "value", Value: cf.ElementValue{Tag: 's', Const: "x"}},
			{Name: "kind", Value: cf.ElementValue{Tag: 'e', EnumDesc: "La/Kind;", EnumName: "ONE"}},
			{Name: "types", Value: cf.ElementValue{Tag: '[', Array: []cf.ElementValue{
				{Tag: 'c', Const: "La/Other;"},
				{Tag: 'I', Const: int32(3)},
			}}},
		},
	}}

	lambda := classtest.Method(cf.AccPublic, "lambda", "()Ljava/lang/Runnable;",
		classtest.Lambda(cf.Handle{Kind: cf.H_INVOKESTATIC, Owner: "a/Sample", Name: "lambda$0", Desc: "()V"}),
		&cf.Insn{Op: cf.ARETURN},
	)

	helper := classtest.Method(cf.AccPrivate|cf.AccStatic|cf.AccSynthetic, "lambda$0", "()V",
		&cf.MethodInsn{Op: cf.INVOKESTATIC, Owner: "a/Util", Name: "tick", Desc: "()V", Interface: true},
		&cf.Insn{Op: cf.RETURN},
	)

	c := classtest.Class("a/Sample", cf.ObjectClass, run, lambda, helper,
		classtest.Abstract(cf.AccPublic, "todo", "()V"))
	c.Interfaces = []string{"java/lang/Runnable"}
	c.SourceFile = "Sample.java"
	c.Signature = "Ljava/lang/Object;Ljava/util/List<La/Other;>;"
	c.InnerClasses = []cf.InnerClass{{Name: "a/Sample$In", OuterName: "a/Sample", InnerName: "In", Access: cf.AccStatic}}
	c.Fields = []*cf.Field{
		{Access: cf.AccStatic | cf.AccFinal, Name: "MAX", Desc: "J", Value: int64(99)},
		{Access: cf.AccPrivate, Name: "count", Desc: "I"},
		{Access: cf.AccPrivate, Name: "name", Desc: "Ljava/lang/String;", Value: "héllo\x00😀"},
	}

	return c
}

func TestRoundTrip(t *testing.T) {
	orig := sampleClass()

	first, err := cf.Write(orig)
	require.NoError(t, err)

	parsed, err := cf.Parse(first)
	require.NoError(t, err)

	second, err := cf.Write(parsed)
	require.NoError(t, err)
	assert.Equal(t, first, second, "re-encoding a parsed class must be stable")

	assert.Equal(t, classtest.Texts(orig), classtest.Texts(parsed))
	assert.Equal(t, orig.Interfaces, parsed.Interfaces)
	assert.Equal(t, orig.Signature, parsed.Signature)
	assert.Equal(t, orig.InnerClasses, parsed.InnerClasses)
	require.Len(t, parsed.Fields, 3)
	assert.Equal(t, int64(99), parsed.Fields[0].Value)
	assert.Equal(t, "héllo\x00😀", parsed.Fields[2].Value)

	run := parsed.FindMethod("run", "(IJLjava/lang/String;)I")
	require.NotNil(t, run, spew.Sdump(parsed.Methods))
	assert.Equal(t, []string{"java/io/IOException"}, run.Exceptions)
	require.Len(t, run.Code.TryCatch, 1)
	assert.Equal(t, "java/lang/Exception", run.Code.TryCatch[0].Type)
	require.Len(t, run.Code.Frames, 2)
	assert.Equal(t, []cf.VerificationType{{Tag: cf.ItemObject, Class: "java/lang/Throwable"}}, run.Code.Frames[1].Stack)
	assert.Equal(t, cf.InitialFrame("a/Sample", run), run.Code.Frames[0].Locals)

	ann := cf.FindAnnotation(run.VisibleAnnotations, run.InvisibleAnnotations, "La/Marker;")
	require.NotNil(t, ann)
	kind, ok := ann.Value("kind")
	require.True(t, ok)
	assert.Equal(t, "ONE", kind.EnumName)

	todo := parsed.FindMethod("todo", "()V")
	require.NotNil(t, todo)
	assert.Nil(t, todo.Code)
}

func TestParseMalformed(t *testing.T) {
	valid, err := cf.Write(sampleClass())
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", []byte{0xca, 0xfe, 0xd0, 0x0d, 0, 0, 0, 61}},
		{"truncated", valid[:len(valid)/2]},
		{"trailing", append(append([]byte{}, valid...), 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cf.Parse(tt.data)
			require.ErrorIs(t, err, cf.ErrMalformed)
		})
	}
}

func TestWriteRejectsBrokenCode(t *testing.T) {
	orphan := &cf.Label{}

	tests := []struct {
		name   string
		method *cf.Method
	}{
		{"label not in list", classtest.Method(cf.AccStatic, "m", "()V",
			&cf.JumpInsn{Op: cf.GOTO, Target: orphan})},
		{"empty body", classtest.Method(cf.AccStatic, "m", "()V")},
		{"operand missing", classtest.Method(cf.AccStatic, "m", "()V", &cf.Insn{Op: cf.GETFIELD})},
		{"switch labels", classtest.Method(cf.AccStatic, "m", "()V",
			&cf.TableSwitchInsn{Min: 0, Max: 3, Default: orphan})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cf.Write(classtest.Class("a/B", cf.ObjectClass, tt.method))
			require.ErrorIs(t, err, cf.ErrMalformed)
		})
	}
}

func TestRawAttributesFollowTheirPool(t *testing.T) {
	src := sampleClass()
	src.Attributes = []*cf.Attribute{{Name: "Custom", Data: []byte{0, 1}}}

	data, err := cf.Write(src)
	require.NoError(t, err)

	// A hand-built attribute has no pool and is dropped.
	parsed, err := cf.Parse(data)
	require.NoError(t, err)
	assert.Empty(t, parsed.Attributes)

	parsed.Attributes = []*cf.Attribute{{Name: "Marker"}}
	data, err = cf.Write(parsed)
	require.NoError(t, err)

	again, err := cf.Parse(data)
	require.NoError(t, err)
	require.Len(t, again.Attributes, 1)
	assert.Equal(t, "Marker", again.Attributes[0].Name)

	// Attributes parsed from one class survive in its clone and its shell.
	clone := again.Clone()
	shell := again.Shell()
	shell.Name = "a/Shell"
	shell.Attributes = clone.Attributes

	data, err = cf.Write(shell)
	require.NoError(t, err)

	fromShell, err := cf.Parse(data)
	require.NoError(t, err)
	assert.Len(t, fromShell.Attributes, 1)
}

func TestCodeCloneIsIndependent(t *testing.T) {
	orig := sampleClass().FindMethod("run", "(IJLjava/lang/String;)I")
	clone := orig.Clone()

	assert.Equal(t, orig.Code.Text(), clone.Code.Text())

	origLabels := make(map[*cf.Label]bool)
	for _, insn := range orig.Code.Instructions {
		if l, ok := insn.(*cf.Label); ok {
			origLabels[l] = true
		}
	}

	for _, insn := range clone.Code.Instructions {
		if f, ok := insn.(*cf.FieldInsn); ok {
			f.Name = "renamed"
		}

		if l, ok := insn.(*cf.Label); ok {
			assert.False(t, origLabels[l], "clone shares a label")
		}
	}

	assert.NotEqual(t, orig.Code.Text(), clone.Code.Text())
	assert.NotSame(t, orig.Code.Frames[0].At, clone.Code.Frames[0].At)

	clone.InvisibleAnnotations[0].Desc = "Lother;"
	assert.Equal(t, "La/Marker;", orig.InvisibleAnnotations[0].Desc)
}
