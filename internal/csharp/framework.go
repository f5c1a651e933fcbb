package csharp

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/slowsigma/CodeTrivia/internal/model"
)

// FrameworkAssembly is the assembly reported for well-known framework types.
const FrameworkAssembly = "netstandard"

// frameworkTable lists well-known base library types per namespace. A "`N"
// suffix gives the generic arity; a "!" suffix marks a value type.
var frameworkTable = map[string][]string{
	"System": {
		"Object", "String", "Boolean!", "Char!", "Byte!", "SByte!", "Int16!", "UInt16!",
		"Int32!", "UInt32!", "Int64!", "UInt64!", "Single!", "Double!", "Decimal!",
		"IntPtr!", "UIntPtr!", "Void!", "DateTime!", "DateTimeOffset!", "TimeSpan!",
		"Guid!", "Nullable`1!", "Lazy`1", "Span`1!", "ReadOnlySpan`1!", "Memory`1!",
		"ReadOnlyMemory`1!", "Console", "Math", "Convert", "Environment", "GC", "Array",
		"Enum", "Delegate", "Type", "Attribute", "Exception", "ArgumentException",
		"ArgumentNullException", "ArgumentOutOfRangeException", "InvalidOperationException",
		"NotImplementedException", "NotSupportedException", "FormatException",
		"IndexOutOfRangeException", "NullReferenceException", "ObjectDisposedException",
		"TimeoutException", "IDisposable", "IAsyncDisposable", "IComparable",
		"IComparable`1", "IEquatable`1", "ICloneable", "IFormattable", "EventArgs",
		"EventHandler", "EventHandler`1", "Uri", "Random", "StringComparer",
		"StringComparison!", "SerializableAttribute", "ObsoleteAttribute",
		"FlagsAttribute", "AttributeUsageAttribute", "Action",
	},
	"System.Collections": {
		"ArrayList", "Hashtable", "IEnumerable", "IEnumerator", "ICollection", "IList",
		"IDictionary", "Queue", "Stack", "BitArray",
	},
	"System.Collections.Generic": {
		"List`1", "Dictionary`2", "HashSet`1", "SortedSet`1", "SortedDictionary`2",
		"SortedList`2", "LinkedList`1", "Queue`1", "Stack`1", "KeyValuePair`2!",
		"IEnumerable`1", "IEnumerator`1", "ICollection`1", "IList`1", "IDictionary`2",
		"ISet`1", "IReadOnlyCollection`1", "IReadOnlyList`1", "IReadOnlyDictionary`2",
		"IComparer`1", "IEqualityComparer`1", "Comparer`1", "EqualityComparer`1",
		"KeyNotFoundException",
	},
	"System.Collections.Concurrent": {
		"ConcurrentDictionary`2", "ConcurrentQueue`1", "ConcurrentBag`1", "BlockingCollection`1",
	},
	"System.Collections.ObjectModel": {
		"Collection`1", "ObservableCollection`1", "ReadOnlyCollection`1",
	},
	"System.Linq": {
		"Enumerable", "Queryable", "IQueryable", "IQueryable`1", "IGrouping`2",
		"IOrderedEnumerable`1", "ILookup`2",
	},
	"System.Text": {
		"StringBuilder", "Encoding",
	},
	"System.Text.RegularExpressions": {
		"Regex", "Match", "MatchCollection", "Group",
	},
	"System.IO": {
		"File", "Directory", "Path", "Stream", "FileStream", "MemoryStream", "StreamReader",
		"StreamWriter", "TextReader", "TextWriter", "StringReader", "StringWriter",
		"FileInfo", "DirectoryInfo", "IOException", "FileNotFoundException",
	},
	"System.Threading": {
		"CancellationToken!", "CancellationTokenSource", "Thread", "Interlocked", "Monitor",
		"SemaphoreSlim", "Mutex", "Timer",
	},
	"System.Threading.Tasks": {
		"Task", "Task`1", "ValueTask!", "ValueTask`1!", "TaskCompletionSource`1", "Parallel",
	},
	"System.Diagnostics": {
		"Debug", "Trace", "Stopwatch", "Process", "ConditionalAttribute",
	},
	"System.Xml": {
		"XmlDocument", "XmlElement", "XmlNode", "XmlReader", "XmlWriter",
	},
	"System.Xml.Linq": {
		"XDocument", "XElement", "XAttribute", "XName", "XNamespace",
	},
	"System.Runtime.CompilerServices": {
		"CallerMemberNameAttribute", "MethodImplAttribute",
	},
	"System.ComponentModel": {
		"INotifyPropertyChanged", "PropertyChangedEventArgs", "PropertyChangedEventHandler",
		"DescriptionAttribute",
	},
}

// predefinedTypes maps C# keywords to their framework types.
var predefinedTypes = map[string]string{
	"object":  "Object",
	"string":  "String",
	"bool":    "Boolean",
	"char":    "Char",
	"byte":    "Byte",
	"sbyte":   "SByte",
	"short":   "Int16",
	"ushort":  "UInt16",
	"int":     "Int32",
	"uint":    "UInt32",
	"long":    "Int64",
	"ulong":   "UInt64",
	"float":   "Single",
	"double":  "Double",
	"decimal": "Decimal",
	"nint":    "IntPtr",
	"nuint":   "UIntPtr",
	"void":    "Void",
}

// framework is the shared, read-only table of well-known types.
type framework struct {
	namespaces map[string]*model.Symbol
	types      map[string]*model.Symbol
	valueTypes map[*model.Symbol]bool
}

var (
	frameworkOnce sync.Once
	frameworkSet  *framework
)

func baseLibrary() *framework {
	frameworkOnce.Do(func() {
		fw := &framework{
			namespaces: make(map[string]*model.Symbol),
			types:      make(map[string]*model.Symbol),
			valueTypes: make(map[*model.Symbol]bool),
		}
		for ns, entries := range frameworkTable {
			for _, e := range entries {
				fw.add(ns, e)
			}
		}
		for n := 1; n <= 16; n++ {
			fw.add("System", fmt.Sprintf("Func`%d", n+1))
			fw.add("System", fmt.Sprintf("Action`%d", n))
		}
		fw.add("System", "Func`1")
		for n := 1; n <= 8; n++ {
			fw.add("System", fmt.Sprintf("ValueTuple`%d!", n))
			fw.add("System", fmt.Sprintf("Tuple`%d", n))
		}
		fw.add("System", "ValueTuple!")
		frameworkSet = fw
	})
	return frameworkSet
}

func (fw *framework) namespace(name string) *model.Symbol {
	if ns, ok := fw.namespaces[name]; ok {
		return ns
	}
	ns := &model.Symbol{Kind: model.KindNamespace, Name: name}
	fw.namespaces[name] = ns
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		fw.namespace(name[:i])
	}
	return ns
}

func (fw *framework) add(ns, entry string) {
	value := strings.HasSuffix(entry, "!")
	entry = strings.TrimSuffix(entry, "!")
	name, arity := entry, 0
	if i := strings.IndexByte(entry, '`'); i >= 0 {
		name = entry[:i]
		arity, _ = strconv.Atoi(entry[i+1:])
	}

	s := &model.Symbol{
		Kind:          model.KindNamedType,
		Name:          name,
		Namespace:     fw.namespace(ns),
		Assembly:      FrameworkAssembly,
		Accessibility: model.Public,
		IsGeneric:     arity > 0,
	}
	for i := 0; i < arity; i++ {
		tp := "T"
		if arity > 1 {
			tp = fmt.Sprintf("T%d", i+1)
		}
		s.TypeParameters = append(s.TypeParameters, &model.Symbol{
			Kind:           model.KindTypeParameter,
			Name:           tp,
			Namespace:      s.Namespace,
			ContainingType: s,
			Assembly:       FrameworkAssembly,
		})
	}
	fw.types[typeKey(ns, name, arity)] = s
	if value {
		fw.valueTypes[s] = true
	}
}

func (fw *framework) lookup(ns, name string, arity int) *model.Symbol {
	return fw.types[typeKey(ns, name, arity)]
}

// typeKey addresses a type by namespace, qualified name and generic arity.
func typeKey(ns, qualified string, arity int) string {
	return ns + "|" + qualified + "`" + strconv.Itoa(arity)
}

// construct returns def instantiated with args. Unresolved arguments are
// dropped.
func construct(def *model.Symbol, args []*model.Symbol) *model.Symbol {
	c := *def
	c.IsGeneric = true
	c.TypeArguments = nil
	for _, a := range args {
		if a != nil {
			c.TypeArguments = append(c.TypeArguments, a)
		}
	}
	return &c
}
