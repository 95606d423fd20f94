package transform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cf "bytegraft/internal/classfile"
	"bytegraft/internal/classfile/classtest"
	"bytegraft/internal/diagnostic"
	"bytegraft/internal/mapper"
	"bytegraft/internal/provider"
	"bytegraft/internal/redirect"
	"bytegraft/internal/symbol"
	"bytegraft/internal/target"
)

var (
	classA   = symbol.NewClass("a.A")
	classB   = symbol.NewClass("a.B")
	classD   = symbol.NewClass("a.D")
	classSrc = symbol.NewClass("a.Src")
)

func aload(n int) cf.Instruction { return &cf.VarInsn{Op: cf.ALOAD, Var: n} }

func op(code int) cf.Instruction { return &cf.Insn{Op: code} }

func field(opcode int, owner, name, desc string) cf.Instruction {
	return &cf.FieldInsn{Op: opcode, Owner: owner, Name: name, Desc: desc}
}

func call(opcode int, owner, name, desc string) cf.Instruction {
	return &cf.MethodInsn{Op: opcode, Owner: owner, Name: name, Desc: desc}
}

func newEngine(t *testing.T, sources ...*cf.ClassFile) *Engine {
	t.Helper()

	classes := provider.Static{}
	for _, c := range sources {
		data, err := cf.Write(c)
		require.NoError(t, err)

		classes[symbol.ClassFromInternal(c.Name).Name] = data
	}

	return NewEngine(DefaultEngineConfig(), mapper.Identity, classes)
}

func newTarget(owner symbol.Class, name, desc, dstName string, clone bool) *target.Method {
	return &target.Method{Method: symbol.NewMethod(owner, name, desc), DstName: dstName, ShouldClone: clone}
}

func find(t *testing.T, c *cf.ClassFile, name, desc string) *cf.Method {
	t.Helper()

	m := c.FindMethod(name, desc)
	require.NotNil(t, m, "method %s%s", name, desc)

	return m
}

func TestFlattenLaterSetWins(t *testing.T) {
	counter := symbol.NewField(classA, "counter", "I")
	helper := symbol.NewMethod(classA, "helper", "()I")

	s1 := redirect.NewSet("s1")
	s1.AddField(redirect.FieldRedirect{Field: counter, DstName: "first"})
	s1.AddMethod(redirect.MethodRedirect{Method: helper, NewOwner: classB, DstName: "helperImpl"})
	s1.AddType(redirect.TypeRedirect{Src: classA, Dst: classB})

	s2 := redirect.NewSet("s2")
	s2.AddField(redirect.FieldRedirect{Field: counter, DstName: "second"})
	s2.AddMethod(redirect.MethodRedirect{Method: helper, DstName: "renamed"})

	tab := flatten([]*redirect.Set{s1, s2}, physical{names: mapper.Identity})
	assert.Equal(t, map[string]string{"a/A.counter": "second"}, tab.fields)
	assert.Equal(t, map[string]string{"a/A.helper()I": "renamed"}, tab.methods)
	assert.Empty(t, tab.crossMethods, "a later same-class rule replaces a cross-class one")
	assert.Equal(t, map[string]string{"a/A": "a/B"}, tab.types)

	tab = flatten([]*redirect.Set{s2, s1}, physical{names: mapper.Identity})
	assert.Equal(t, "first", tab.fields["a/A.counter"])
	assert.Equal(t, methodTarget{owner: "a/B", name: "helperImpl"}, tab.crossMethods["a/A.helper()I"])
	assert.Empty(t, tab.methods)
}

func TestFlattenUsesNameMapper(t *testing.T) {
	table, err := mapper.ParseTable([]byte(`
classes:
  a.A: x.C1
fields:
  a.A:
    counter: f_1
methods:
  a.A:
    helper: m_2
`))
	require.NoError(t, err)

	s := redirect.NewSet("s")
	s.AddField(redirect.FieldRedirect{Field: symbol.NewField(classA, "counter", "I"), DstName: "total"})
	s.AddMethod(redirect.MethodRedirect{Method: symbol.NewMethod(classA, "helper", "(La/A;)V"), DstName: "help"})

	tab := flatten([]*redirect.Set{s}, physical{names: table})
	assert.Equal(t, map[string]string{"x/C1.f_1": "total"}, tab.fields)
	assert.Equal(t, map[string]string{"x/C1.m_2(Lx/C1;)V": "help"}, tab.methods)
}

func TestFieldRedirectInPlace(t *testing.T) {
	dst := classtest.Class("a/A", cf.ObjectClass,
		classtest.Method(cf.AccPrivate, "read", "()I",
			aload(0), field(cf.GETFIELD, "a/A", "counter", "I"), op(cf.IRETURN)))
	dst.Fields = []*cf.Field{classtest.Field(cf.AccPrivate, "total", "I")}

	s := redirect.NewSet("s")
	s.AddField(redirect.FieldRedirect{Field: symbol.NewField(classA, "counter", "I"), DstName: "total"})

	tc := target.NewClass(classA, s)
	require.NoError(t, tc.AddTarget(newTarget(classA, "read", "()I", "read", false)))

	report, err := newEngine(t).TransformClass(t.Context(), dst, tc)
	require.NoError(t, err)

	m := find(t, dst, "read", "()I")
	assert.Equal(t, []string{"ALOAD 0", "GETFIELD a/A.total : I", "IRETURN"}, m.Code.Text())
	assert.Equal(t, cf.AccPublic, m.Access&(cf.AccPublic|cf.AccPrivate))
	assert.Len(t, dst.Methods, 1)
	assert.Equal(t, []string{"read()I"}, report.Methods)
}

func TestIdentityInPlaceKeepsBody(t *testing.T) {
	body := []cf.Instruction{
		aload(0), call(cf.INVOKEVIRTUAL, "a/A", "helper", "()I"),
		field(cf.GETSTATIC, "a/Other", "limit", "I"), op(cf.IADD), op(cf.IRETURN),
	}
	dst := classtest.Class("a/A", cf.ObjectClass, classtest.Method(cf.AccPublic, "run", "()I", body...))
	before := dst.Methods[0].Code.Text()

	tc := target.NewClass(classA)
	require.NoError(t, tc.AddTarget(newTarget(classA, "run", "()I", "run", false)))

	report, err := newEngine(t).TransformClass(t.Context(), dst, tc)
	require.NoError(t, err)

	assert.Equal(t, before, find(t, dst, "run", "()I").Code.Text())

	var selves []string
	for _, d := range report.Infos {
		if d.Code == diagnostic.CodeSelfMapping {
			selves = append(selves, d.Member)
		}
	}

	assert.Contains(t, selves, "a/A.helper()I")
	assert.Contains(t, selves, "a/Other.limit")
	assert.Contains(t, selves, "a/Other")
}

func TestCrossClassRedirects(t *testing.T) {
	helper := symbol.NewMethod(classA, "helper", "()I")
	counter := symbol.NewField(classA, "counter", "I")

	s := redirect.NewSet("s")
	s.AddMethod(redirect.MethodRedirect{Method: helper, NewOwner: classB, DstName: "helperImpl"})
	s.AddField(redirect.FieldRedirect{Field: counter, NewOwner: classB, DstName: "total"})

	tests := []struct {
		name    string
		body    []cf.Instruction
		want    []string
		wantErr error
	}{
		{
			name: "virtual call becomes static with receiver",
			body: []cf.Instruction{aload(0), call(cf.INVOKEVIRTUAL, "a/A", "helper", "()I"), op(cf.IRETURN)},
			want: []string{"ALOAD 0", "INVOKESTATIC a/B.helperImpl(La/A;)I", "IRETURN"},
		},
		{
			name: "interface call becomes static with receiver",
			body: []cf.Instruction{aload(0), call(cf.INVOKEINTERFACE, "a/A", "helper", "()I"), op(cf.IRETURN)},
			want: []string{"ALOAD 0", "INVOKESTATIC a/B.helperImpl(La/A;)I", "IRETURN"},
		},
		{
			name: "static call keeps its descriptor",
			body: []cf.Instruction{call(cf.INVOKESTATIC, "a/A", "helper", "()I"), op(cf.IRETURN)},
			want: []string{"INVOKESTATIC a/B.helperImpl()I", "IRETURN"},
		},
		{
			name: "static field moves",
			body: []cf.Instruction{field(cf.GETSTATIC, "a/A", "counter", "I"), op(cf.IRETURN)},
			want: []string{"GETSTATIC a/B.total : I", "IRETURN"},
		},
		{
			name:    "super call is rejected",
			body:    []cf.Instruction{aload(0), call(cf.INVOKESPECIAL, "a/A", "helper", "()I"), op(cf.IRETURN)},
			wantErr: diagnostic.ErrUnsupportedRedirect,
		},
		{
			name:    "instance field is rejected",
			body:    []cf.Instruction{aload(0), field(cf.GETFIELD, "a/A", "counter", "I"), op(cf.IRETURN)},
			wantErr: diagnostic.ErrUnsupportedRedirect,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := classtest.Class("a/A", cf.ObjectClass, classtest.Method(cf.AccPublic, "run", "()I", tt.body...))

			tc := target.NewClass(classA, s)
			require.NoError(t, tc.AddTarget(newTarget(classA, "run", "()I", "run", false)))

			_, err := newEngine(t).TransformClass(t.Context(), dst, tc)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, find(t, dst, "run", "()I").Code.Text())
		})
	}
}

func TestCrossClassMethodHandle(t *testing.T) {
	s := redirect.NewSet("s")
	s.AddMethod(redirect.MethodRedirect{Method: symbol.NewMethod(classA, "helper", "()V"), NewOwner: classB, DstName: "helperImpl"})

	ref := classtest.Lambda(cf.Handle{Kind: cf.H_INVOKEVIRTUAL, Owner: "a/A", Name: "helper", Desc: "()V"})
	dst := classtest.Class("a/A", cf.ObjectClass,
		classtest.Method(cf.AccPublic, "run", "()V", ref, op(cf.POP), op(cf.RETURN)))

	tc := target.NewClass(classA, s)
	require.NoError(t, tc.AddTarget(newTarget(classA, "run", "()V", "run", false)))

	_, err := newEngine(t).TransformClass(t.Context(), dst, tc)
	require.NoError(t, err)

	indy := find(t, dst, "run", "()V").Code.Instructions[0].(*cf.InvokeDynamicInsn)
	assert.Equal(t, cf.Handle{Kind: cf.H_INVOKESTATIC, Owner: "a/B", Name: "helperImpl", Desc: "(La/A;)V"}, indy.Args[1])

	special := classtest.Lambda(cf.Handle{Kind: cf.H_INVOKESPECIAL, Owner: "a/A", Name: "helper", Desc: "()V"})
	dst = classtest.Class("a/A", cf.ObjectClass,
		classtest.Method(cf.AccPublic, "run", "()V", special, op(cf.POP), op(cf.RETURN)))

	_, err = newEngine(t).TransformClass(t.Context(), dst, tc)
	require.ErrorIs(t, err, diagnostic.ErrUnsupportedRedirect)
}

func lambdaSource() *cf.ClassFile {
	helper := func(name string) *cf.Method {
		return classtest.Method(cf.AccPrivate|cf.AccStatic|cf.AccSynthetic, name, "()V",
			field(cf.GETSTATIC, "a/Src", "counter", "I"), op(cf.POP), op(cf.RETURN))
	}
	handle := func(name string) cf.Handle {
		return cf.Handle{Kind: cf.H_INVOKESTATIC, Owner: "a/Src", Name: name, Desc: "()V"}
	}

	src := classtest.Class("a/Src", cf.ObjectClass,
		classtest.Method(cf.AccPublic, "run", "()V",
			classtest.Lambda(handle("lambda$run$0")), op(cf.POP),
			classtest.Lambda(handle("lambda$run$1")), op(cf.POP),
			classtest.Lambda(handle("lambda$run$0")), op(cf.POP),
			op(cf.RETURN)),
		helper("lambda$run$0"),
		helper("lambda$run$1"),
	)
	src.Fields = []*cf.Field{classtest.Field(cf.AccStatic, "counter", "I")}

	return src
}

func TestCloneCopiesLambdaHelpers(t *testing.T) {
	dst := classtest.Class("a/D", cf.ObjectClass)
	dst.Fields = []*cf.Field{classtest.Field(cf.AccStatic, "counter", "I")}

	tc := target.NewClass(classD)
	tm := newTarget(classD, "run", "()V", "runPatched", true)
	tm.SrcOwner = classSrc
	require.NoError(t, tc.AddTarget(tm))

	report, err := newEngine(t, lambdaSource()).TransformClass(t.Context(), dst, tc)
	require.NoError(t, err)

	var helpers []string
	for _, m := range dst.Methods {
		if strings.HasPrefix(m.Name, "redirect$") {
			helpers = append(helpers, m.Name)
			assert.Equal(t, []string{"GETSTATIC a/D.counter : I", "POP", "RETURN"}, m.Code.Text())
		}
	}

	assert.ElementsMatch(t, []string{"redirect$lambda$run$0", "redirect$lambda$run$1"}, helpers)

	var targets []string
	for _, insn := range find(t, dst, "runPatched", "()V").Code.Instructions {
		if indy, ok := insn.(*cf.InvokeDynamicInsn); ok {
			h := indy.Args[1].(cf.Handle)
			targets = append(targets, h.Owner+"."+h.Name)
		}
	}

	assert.Equal(t, []string{"a/D.redirect$lambda$run$0", "a/D.redirect$lambda$run$1", "a/D.redirect$lambda$run$0"}, targets)

	assert.Len(t, report.Methods, 1)

	for _, text := range classtest.Texts(dst) {
		assert.NotContains(t, strings.Join(text, "\n"), "a/Src")
	}

	_, err = classtest.RoundTrip(dst)
	require.NoError(t, err)
}

func TestCloneFillsStub(t *testing.T) {
	stub := classtest.Method(cf.AccPublic, "tick", "()V", op(cf.RETURN))
	stub.VisibleAnnotations = []*cf.Annotation{{Desc: "Lbytegraft/api/Stub;"}, {Desc: "La/Keep;"}}

	dst := classtest.Class("a/D", cf.ObjectClass, stub)
	src := classtest.Class("a/Src", cf.ObjectClass,
		classtest.Method(cf.AccProtected, "tick", "()V", op(cf.NOP), op(cf.RETURN)))

	tc := target.NewClass(classD)
	tm := newTarget(classD, "tick", "()V", "tick", true)
	tm.SrcOwner = classSrc
	require.NoError(t, tc.AddTarget(tm))

	report, err := newEngine(t, src).TransformClass(t.Context(), dst, tc)
	require.NoError(t, err)

	require.Len(t, dst.Methods, 1)
	assert.Same(t, stub, dst.Methods[0])
	assert.Equal(t, []string{"NOP", "RETURN"}, stub.Code.Text())
	assert.Equal(t, []*cf.Annotation{{Desc: "La/Keep;"}}, stub.VisibleAnnotations)
	assert.Equal(t, diagnostic.CodeStubReused, report.Infos[len(report.Infos)-1].Code)
}

func TestCloneReplacesExistingMethod(t *testing.T) {
	existing := classtest.Method(cf.AccPrivate, "tick", "()V", op(cf.RETURN))
	dst := classtest.Class("a/D", cf.ObjectClass, existing)
	src := classtest.Class("a/Src", cf.ObjectClass,
		classtest.Method(cf.AccPrivate|cf.AccFinal, "tick", "()V", op(cf.NOP), op(cf.RETURN)))

	tc := target.NewClass(classD)
	tm := newTarget(classD, "tick", "()V", "tick", true)
	tm.SrcOwner = classSrc
	require.NoError(t, tc.AddTarget(tm))

	report, err := newEngine(t, src).TransformClass(t.Context(), dst, tc)
	require.NoError(t, err)

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, diagnostic.CodeMethodReplaced, report.Warnings[0].Code)
	assert.Equal(t, "tick()V", report.Warnings[0].Member)
	assert.Equal(t, 1, report.Count(diagnostic.CodeMethodReplaced))

	require.Len(t, dst.Methods, 1)
	assert.NotSame(t, existing, dst.Methods[0])
	assert.Equal(t, cf.AccPublic|cf.AccFinal, dst.Methods[0].Access)
	assert.Equal(t, []string{"NOP", "RETURN"}, dst.Methods[0].Code.Text())
}

func TestSyntheticAccessor(t *testing.T) {
	dst := classtest.Class("a/D", cf.ObjectClass,
		classtest.Method(cf.AccPrivate, "scale", "(JLjava/lang/String;)I",
			aload(0), field(cf.GETFIELD, "a/D", "n", "I"), op(cf.IRETURN)))

	tc := target.NewClass(classD)
	tm := newTarget(classD, "scale", "(JLjava/lang/String;)I", "scale", false)
	tm.MakeSyntheticAccessor = true
	require.NoError(t, tc.AddTarget(tm))

	_, err := newEngine(t).TransformClass(t.Context(), dst, tc)
	require.NoError(t, err)

	acc := find(t, dst, "scale", "(La/D;JLjava/lang/String;)I")
	assert.Equal(t, cf.AccPublic|cf.AccStatic|cf.AccSynthetic, acc.Access)
	assert.Equal(t, []string{
		"ALOAD 0", "LLOAD 1", "ALOAD 3",
		"INVOKEVIRTUAL a/D.scale(JLjava/lang/String;)I",
		"IRETURN",
	}, acc.Code.Text())
	assert.Equal(t, 4, acc.Code.MaxLocals)

	_, err = classtest.RoundTrip(dst)
	require.NoError(t, err)
}

func TestWholeClass(t *testing.T) {
	src := classtest.Class("a/Src", cf.ObjectClass,
		classtest.Method(cf.AccPublic, "get", "()I",
			aload(0), field(cf.GETFIELD, "a/Src", "value", "I"), op(cf.IRETURN)),
		classtest.Method(cf.AccPublic, "call", "()V",
			aload(0), call(cf.INVOKEVIRTUAL, "a/Src", "get", "()I"), op(cf.POP), op(cf.RETURN)),
		classtest.Method(cf.AccPublic, "shared", "()V", op(cf.NOP), op(cf.RETURN)),
	)
	src.Fields = []*cf.Field{classtest.Field(cf.AccPrivate, "value", "I")}

	t.Run("class destination", func(t *testing.T) {
		own := classtest.Method(cf.AccPublic, "shared", "()V", op(cf.RETURN))
		dst := classtest.Class("a/D", "a/Base", own)
		dst.Interfaces = []string{"a/Marker"}

		tc := target.NewClass(classD)
		require.NoError(t, tc.TargetWholeClass(classSrc))

		report, err := newEngine(t, src).TransformClass(t.Context(), dst, tc)
		require.NoError(t, err)

		assert.Equal(t, "a/D", dst.Name)
		assert.Equal(t, "a/Base", dst.SuperName)
		assert.Equal(t, []string{"a/Marker"}, dst.Interfaces)
		assert.ElementsMatch(t, []string{"get()I", "call()V", "shared()V"}, report.Methods)
		assert.Same(t, own, dst.FindMethod("shared", "()V"), "destination members win")
		require.NotNil(t, dst.FindField("value", "I"))

		texts := classtest.Texts(dst)
		assert.Equal(t, []string{"ALOAD 0", "GETFIELD a/D.value : I", "IRETURN"}, texts["get()I"])
		assert.Equal(t, []string{"ALOAD 0", "INVOKEVIRTUAL a/D.get()I", "POP", "RETURN"}, texts["call()V"])

		for _, text := range texts {
			assert.NotContains(t, strings.Join(text, "\n"), "a/Src")
		}

		_, err = classtest.RoundTrip(dst)
		require.NoError(t, err)
	})

	t.Run("interface destination", func(t *testing.T) {
		dst := classtest.Interface("a/D")

		tc := target.NewClass(classD)
		require.NoError(t, tc.TargetWholeClass(classSrc))

		_, err := newEngine(t, src).TransformClass(t.Context(), dst, tc)
		require.NoError(t, err)

		assert.True(t, dst.IsInterface())

		texts := classtest.Texts(dst)
		assert.Equal(t, []string{"ALOAD 0", "GETFIELD a/Src.value : I", "IRETURN"}, texts["get()I"],
			"field references stay on the source")
		assert.Equal(t, []string{"ALOAD 0", "INVOKEINTERFACE a/D.get()I (itf)", "POP", "RETURN"}, texts["call()V"])
	})
}

// typeSource refers to its own class as an allocated type, a cast target, a
// class constant and in descriptors.
func typeSource() *cf.ClassFile {
	src := classtest.Class("a/Src", cf.ObjectClass,
		classtest.Method(cf.AccPublic|cf.AccStatic, "make", "()La/Src;",
			&cf.TypeInsn{Op: cf.NEW, Type: "a/Src"}, op(cf.DUP),
			call(cf.INVOKESPECIAL, "a/Src", cf.Constructor, "()V"), op(cf.ARETURN)),
		classtest.Method(cf.AccPublic|cf.AccStatic, "cast", "(Ljava/lang/Object;)[La/Src;",
			aload(0), &cf.TypeInsn{Op: cf.CHECKCAST, Type: "a/Src"},
			aload(0), &cf.TypeInsn{Op: cf.INSTANCEOF, Type: "a/Src"}, op(cf.POP2),
			op(cf.ICONST_1), &cf.TypeInsn{Op: cf.ANEWARRAY, Type: "a/Src"},
			&cf.LdcInsn{Value: cf.ObjectType("a/Src")}, op(cf.POP), op(cf.ARETURN)),
	)
	src.Fields = []*cf.Field{classtest.Field(cf.AccPrivate, "next", "La/Src;")}

	return src
}

func assertNoSourceType(t *testing.T, c *cf.ClassFile) {
	t.Helper()

	for key, text := range classtest.Texts(c) {
		assert.NotContains(t, key, "a/Src")
		assert.NotContains(t, strings.Join(text, "\n"), "a/Src", key)
	}

	for _, f := range c.Fields {
		assert.NotContains(t, f.Desc, "a/Src", f.Name)
	}
}

func TestWholeClassTypeReferences(t *testing.T) {
	dst := classtest.Class("a/D", cf.ObjectClass)

	tc := target.NewClass(classD)
	require.NoError(t, tc.TargetWholeClass(classSrc))

	_, err := newEngine(t, typeSource()).TransformClass(t.Context(), dst, tc)
	require.NoError(t, err)

	texts := classtest.Texts(dst)
	assert.Equal(t, []string{"NEW a/D", "DUP", "INVOKESPECIAL a/D.<init>()V", "ARETURN"}, texts["make()La/D;"])
	assert.Contains(t, texts["cast(Ljava/lang/Object;)[La/D;"], "CHECKCAST a/D")
	assert.Contains(t, texts["cast(Ljava/lang/Object;)[La/D;"], "LDC La/D;")
	assert.NotNil(t, dst.FindField("next", "La/D;"))
	assertNoSourceType(t, dst)

	_, err = classtest.RoundTrip(dst)
	require.NoError(t, err)
}

func TestCloneTypeReferences(t *testing.T) {
	dst := classtest.Class("a/D", cf.ObjectClass)

	tc := target.NewClass(classD)

	for _, m := range []struct{ name, desc string }{
		{"make", "()La/Src;"},
		{"cast", "(Ljava/lang/Object;)[La/Src;"},
	} {
		tm := newTarget(classD, m.name, m.desc, m.name, true)
		tm.SrcOwner = classSrc
		require.NoError(t, tc.AddTarget(tm))
	}

	report, err := newEngine(t, typeSource()).TransformClass(t.Context(), dst, tc)
	require.NoError(t, err)

	assert.Equal(t, []string{"make()La/D;", "cast(Ljava/lang/Object;)[La/D;"}, report.Methods)

	texts := classtest.Texts(dst)
	assert.Equal(t, []string{"NEW a/D", "DUP", "INVOKESPECIAL a/D.<init>()V", "ARETURN"}, texts["make()La/D;"])
	assert.Contains(t, texts["cast(Ljava/lang/Object;)[La/D;"], "INSTANCEOF a/D")
	assert.Contains(t, texts["cast(Ljava/lang/Object;)[La/D;"], "ANEWARRAY a/D")
	assertNoSourceType(t, dst)
}

func TestWholeClassRedirectsOwnMembers(t *testing.T) {
	src := classtest.Class("a/Src", cf.ObjectClass,
		classtest.Method(cf.AccPublic, "get", "()I",
			aload(0), field(cf.GETFIELD, "a/Src", "counter", "I"), op(cf.IRETURN)))
	dst := classtest.Class("a/A", "a/OldBase",
		classtest.Method(cf.AccPublic, "mine", "()I",
			aload(0), field(cf.GETFIELD, "a/A", "counter", "I"), op(cf.IRETURN)))
	dst.Fields = []*cf.Field{classtest.Field(cf.AccPrivate, "total", "I")}

	s := redirect.NewSet("s")
	s.AddField(redirect.FieldRedirect{Field: symbol.NewField(classA, "counter", "I"), DstName: "total"})
	s.AddType(redirect.TypeRedirect{Src: symbol.NewClass("a.OldBase"), Dst: symbol.NewClass("a.NewBase")})

	tc := target.NewClass(classA, s)
	require.NoError(t, tc.TargetWholeClass(classSrc))

	_, err := newEngine(t, src).TransformClass(t.Context(), dst, tc)
	require.NoError(t, err)

	texts := classtest.Texts(dst)
	assert.Equal(t, []string{"ALOAD 0", "GETFIELD a/A.total : I", "IRETURN"}, texts["get()I"])
	assert.Equal(t, []string{"ALOAD 0", "GETFIELD a/A.total : I", "IRETURN"}, texts["mine()I"],
		"destination members get the same redirects")
	assert.Equal(t, "a/NewBase", dst.SuperName)
	assert.Equal(t, "a/A", dst.Name)
}

func TestCloneMutuallyRecursiveHelpers(t *testing.T) {
	handle := func(name string) cf.Handle {
		return cf.Handle{Kind: cf.H_INVOKESTATIC, Owner: "a/Src", Name: name, Desc: "()V"}
	}
	helper := func(name, other string) *cf.Method {
		return classtest.Method(cf.AccPrivate|cf.AccStatic|cf.AccSynthetic, name, "()V",
			classtest.Lambda(handle(other)), op(cf.POP),
			classtest.Lambda(handle(name)), op(cf.POP), op(cf.RETURN))
	}

	src := classtest.Class("a/Src", cf.ObjectClass,
		classtest.Method(cf.AccPublic, "run", "()V",
			classtest.Lambda(handle("lambda$0")), op(cf.POP), op(cf.RETURN)),
		helper("lambda$0", "lambda$1"),
		helper("lambda$1", "lambda$0"),
	)
	dst := classtest.Class("a/D", cf.ObjectClass)

	tc := target.NewClass(classD)
	tm := newTarget(classD, "run", "()V", "run", true)
	tm.SrcOwner = classSrc
	require.NoError(t, tc.AddTarget(tm))

	report, err := newEngine(t, src).TransformClass(t.Context(), dst, tc)
	require.NoError(t, err)

	targets := func(m *cf.Method) []string {
		var out []string

		for _, insn := range m.Code.Instructions {
			if indy, ok := insn.(*cf.InvokeDynamicInsn); ok {
				h := indy.Args[1].(cf.Handle)
				out = append(out, h.Owner+"."+h.Name)
			}
		}

		return out
	}

	assert.Equal(t, []string{"a/D.redirect$lambda$0"}, targets(find(t, dst, "run", "()V")))
	assert.Equal(t, []string{"a/D.redirect$lambda$1", "a/D.redirect$lambda$0"},
		targets(find(t, dst, "redirect$lambda$0", "()V")))
	assert.Equal(t, []string{"a/D.redirect$lambda$0", "a/D.redirect$lambda$1"},
		targets(find(t, dst, "redirect$lambda$1", "()V")))
	assert.Len(t, dst.Methods, 3, "each helper is copied once")
	assert.Equal(t, 2, report.Count(diagnostic.CodeHelperCloned))
}

func TestTargetsProducingSameMethod(t *testing.T) {
	src := classtest.Class("a/Src", cf.ObjectClass,
		classtest.Method(cf.AccPublic, "put", "(La/X;)V", op(cf.RETURN)),
		classtest.Method(cf.AccPublic, "put", "(La/Y;)V", op(cf.NOP), op(cf.RETURN)))
	dst := classtest.Class("a/D", cf.ObjectClass)

	s := redirect.NewSet("s")
	s.AddType(redirect.TypeRedirect{Src: symbol.NewClass("a.X"), Dst: symbol.NewClass("a.Y")})

	tc := target.NewClass(classD, s)

	for _, desc := range []string{"(La/X;)V", "(La/Y;)V"} {
		tm := newTarget(classD, "put", desc, "put", true)
		tm.SrcOwner = classSrc
		require.NoError(t, tc.AddTarget(tm), "descriptors differ before redirection")
	}

	_, err := newEngine(t, src).TransformClass(t.Context(), dst, tc)
	require.ErrorIs(t, err, diagnostic.ErrInvariant)
	assert.Contains(t, err.Error(), "both produce put(La/Y;)V")
}

func TestTransformErrors(t *testing.T) {
	dst := classtest.Class("a/D", cf.ObjectClass)

	missing := target.NewClass(classD)
	require.NoError(t, missing.AddTarget(newTarget(classD, "absent", "()V", "absent", false)))

	_, err := newEngine(t).TransformClass(t.Context(), dst, missing)
	require.ErrorIs(t, err, diagnostic.ErrResolution)
	assert.Contains(t, err.Error(), "absent()V")
	assert.NotContains(t, err.Error(), "similar")

	typo := classtest.Class("a/D", cf.ObjectClass,
		classtest.Method(cf.AccPublic, "render", "()V", op(cf.RETURN)),
		classtest.Method(cf.AccPublic, "reset", "(I)V", op(cf.RETURN)))
	misspelled := target.NewClass(classD)
	require.NoError(t, misspelled.AddTarget(newTarget(classD, "rendr", "()V", "rendr", false)))

	_, err = newEngine(t).TransformClass(t.Context(), typo, misspelled)
	require.ErrorIs(t, err, diagnostic.ErrResolution)
	assert.Contains(t, err.Error(), "similar: render()V")

	noSource := target.NewClass(classD)
	tm := newTarget(classD, "run", "()V", "run", true)
	tm.SrcOwner = symbol.NewClass("a.Nowhere")
	require.NoError(t, noSource.AddTarget(tm))

	_, err = newEngine(t).TransformClass(t.Context(), dst, noSource)
	require.ErrorIs(t, err, diagnostic.ErrResolution)

	_, err = newEngine(t).TransformClass(t.Context(), dst, target.NewClass(classA))
	require.ErrorIs(t, err, diagnostic.ErrInvariant)
}

func TestDispatch(t *testing.T) {
	tests := []struct {
		op   int
		want Dispatch
		ok   bool
	}{
		{cf.INVOKESTATIC, DispatchStatic, true},
		{cf.INVOKEVIRTUAL, DispatchVirtual, true},
		{cf.INVOKEINTERFACE, DispatchInterface, true},
		{cf.INVOKESPECIAL, 0, false},
	}

	for _, tt := range tests {
		t.Run(cf.OpcodeName(tt.op), func(t *testing.T) {
			got, ok := callDispatch(tt.op)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "Interface", DispatchInterface.String())
	assert.Equal(t, "(La/A;I)V", DispatchVirtual.staticDesc("a/A", "(I)V"))
	assert.Equal(t, "(I)V", DispatchStatic.staticDesc("a/A", "(I)V"))
}
