// =============================================================================
// Abstract Preprocessor - XML Document Model
// =============================================================================
//
// This module reads and writes abstract-record XML documents. It keeps just
// enough structure to edit the handful of elements the preprocessor cares
// about while leaving inline markup untouched.
//
// TREE MODEL:
//   Every element becomes a Node. A node is either:
//   - a container: it has element children that are not inline markup
//     (e.g. <article>, <authors>); containers are written child by child.
//   - a markup leaf: it holds only text and inline formatting tags
//     (e.g. <title>, <abstract>); its raw inner XML is kept verbatim and
//     edited as a string.
//
//   <bioline>                          <!-- container -->
//     <article id="ab20xxx" ...>       <!-- container -->
//       <title>Effects of H2O...</title>            <!-- leaf -->
//       <authors>                                   <!-- container -->
//         <author><lastname>Smith</lastname></author>
//       </authors>
//       <abstract>Background: ...<i>in vitro</i></abstract>  <!-- leaf -->
//     </article>
//   </bioline>
//
// PROLOG:
//   Comments, processing instructions and the DOCTYPE that precede the root
//   element are kept and written back, one per line, after the declaration.
//
// LIMITATIONS:
//   - Comments and processing instructions inside containers are dropped.
//   - Text that sits directly inside a container (next to child elements)
//     is dropped.
//   - Namespace prefixes other than xml: are not preserved.
//
// =============================================================================

package abstractxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// xmlNamespace is the namespace encoding/xml reports for the xml: prefix.
const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// inlineTags are formatting elements that may appear inside text fields.
// An element whose children are all inline tags is treated as a text leaf.
var inlineTags = map[string]bool{
	"i": true, "b": true, "u": true, "em": true, "strong": true,
	"sup": true, "sub": true, "br": true, "span": true, "a": true,
	"taxon": true, "sp": true,
}

// =============================================================================
// NODE
// =============================================================================

// Node is one XML element.
type Node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Inner    string     `xml:",innerxml"`
	Children []*Node    `xml:",any"`
}

// Name returns the local element name.
func (n *Node) Name() string {
	return n.XMLName.Local
}

// IsLeaf reports whether the node holds text (plus inline markup) rather
// than structural children.
func (n *Node) IsLeaf() bool {
	for _, child := range n.Children {
		if !inlineTags[child.Name()] {
			return false
		}
	}
	return true
}

// Text returns the raw inner XML of a leaf node. Containers have no text.
func (n *Node) Text() string {
	if !n.IsLeaf() {
		return ""
	}
	return n.Inner
}

// SetText replaces the raw inner XML of a leaf node.
// The value is written verbatim, so inline markup such as <i> survives.
func (n *Node) SetText(value string) {
	n.Inner = value
	n.Children = nil
}

// Attr returns the value of the named attribute and whether it exists.
func (n *Node) Attr(name string) (string, bool) {
	for _, attr := range n.Attrs {
		if attr.Name.Local == name {
			return attr.Value, true
		}
	}
	return "", false
}

// SetAttr sets the named attribute, appending it if it does not exist.
func (n *Node) SetAttr(name, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Name.Local == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

// AppendChild adds a new empty leaf element as the last child.
func (n *Node) AppendChild(name string) *Node {
	child := &Node{XMLName: xml.Name{Local: name}}
	n.Children = append(n.Children, child)
	return child
}

// =============================================================================
// TREE WALKING
// =============================================================================

// Located pairs a node with its element path, e.g. "article/authors/author[2]".
type Located struct {
	Path string
	Node *Node
}

// Walk visits n and every structural descendant in document order.
// Inline markup inside leaves is not visited.
func (n *Node) Walk(fn func(path string, node *Node)) {
	n.walk(n.Name(), fn)
}

func (n *Node) walk(path string, fn func(string, *Node)) {
	fn(path, n)
	if n.IsLeaf() {
		return
	}

	// Count same-name siblings so repeated elements get an index suffix.
	counts := make(map[string]int)
	for _, child := range n.Children {
		counts[child.Name()]++
	}

	seen := make(map[string]int)
	for _, child := range n.Children {
		seen[child.Name()]++
		childPath := path + "/" + child.Name()
		if counts[child.Name()] > 1 {
			childPath = fmt.Sprintf("%s[%d]", childPath, seen[child.Name()])
		}
		child.walk(childPath, fn)
	}
}

// Find returns every descendant (including n) with the given local name.
func (n *Node) Find(name string) []Located {
	var found []Located
	n.Walk(func(path string, node *Node) {
		if node.Name() == name {
			found = append(found, Located{Path: path, Node: node})
		}
	})
	return found
}

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is a parsed abstract XML file.
type Document struct {
	// HasDeclaration records whether the source began with <?xml ...?>.
	HasDeclaration bool

	// Prolog holds the markup between the declaration and the root element,
	// serialized one item per entry (e.g. "<!DOCTYPE bioline>").
	Prolog []string

	// Root is the document element.
	Root *Node
}

// Parse decodes an XML document. Any syntax error is returned as-is; callers
// wrap it into a MalformedError with the file path.
func Parse(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Entity = xml.HTMLEntity
	decoder.CharsetReader = charsetReader

	start, prolog, err := readProlog(decoder)
	if err != nil {
		return nil, err
	}

	root := &Node{}
	if err := decoder.DecodeElement(root, &start); err != nil {
		return nil, err
	}

	return &Document{
		HasDeclaration: bytes.HasPrefix(trimmed, []byte("<?xml")),
		Prolog:         prolog,
		Root:           root,
	}, nil
}

// readProlog consumes tokens up to the root start tag and returns it along
// with the prolog markup. The XML declaration itself is not part of the
// prolog; Bytes always writes a UTF-8 one.
func readProlog(decoder *xml.Decoder) (xml.StartElement, []string, error) {
	var prolog []string

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return xml.StartElement{}, nil, fmt.Errorf("no root element")
		}
		if err != nil {
			return xml.StartElement{}, nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			return t, prolog, nil
		case xml.ProcInst:
			if t.Target == "xml" {
				continue
			}
			if len(t.Inst) == 0 {
				prolog = append(prolog, "<?"+t.Target+"?>")
			} else {
				prolog = append(prolog, "<?"+t.Target+" "+string(t.Inst)+"?>")
			}
		case xml.Comment:
			prolog = append(prolog, "<!--"+string(t)+"-->")
		case xml.Directive:
			prolog = append(prolog, "<!"+string(t)+">")
		}
	}
}

// charsetReader converts legacy encodings (ISO-8859-1, Windows-1252, ...)
// to UTF-8. Output is always written back as UTF-8.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

// Bytes serializes the document with two-space indentation.
func (d *Document) Bytes() []byte {
	var buffer bytes.Buffer

	if d.HasDeclaration {
		buffer.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	}
	for _, item := range d.Prolog {
		buffer.WriteString(item)
		buffer.WriteString("\n")
	}
	writeNode(&buffer, d.Root, "  ", 0)

	return buffer.Bytes()
}

// writeNode writes an element to the buffer with indentation.
func writeNode(buffer *bytes.Buffer, node *Node, indent string, level int) {
	pad := strings.Repeat(indent, level)

	buffer.WriteString(pad)
	buffer.WriteString("<")
	buffer.WriteString(node.Name())
	for _, attr := range node.Attrs {
		buffer.WriteString(fmt.Sprintf(" %s=\"%s\"", attrName(attr.Name), escapeXML(attr.Value)))
	}

	if node.IsLeaf() {
		if node.Inner == "" {
			buffer.WriteString("/>\n")
			return
		}
		buffer.WriteString(">")
		buffer.WriteString(node.Inner)
	} else {
		buffer.WriteString(">\n")
		for _, child := range node.Children {
			writeNode(buffer, child, indent, level+1)
		}
		buffer.WriteString(pad)
	}

	buffer.WriteString("</")
	buffer.WriteString(node.Name())
	buffer.WriteString(">\n")
}

// attrName restores the xml: prefix (xml:lang is common in abstracts).
func attrName(name xml.Name) string {
	switch name.Space {
	case "":
		return name.Local
	case xmlNamespace, "xml":
		return "xml:" + name.Local
	case "xmlns":
		return "xmlns:" + name.Local
	default:
		return name.Local
	}
}

// escapeXML escapes special characters for XML attribute values.
func escapeXML(s string) string {
	var buffer bytes.Buffer

	for _, r := range s {
		switch r {
		case '&':
			buffer.WriteString("&amp;")
		case '<':
			buffer.WriteString("&lt;")
		case '>':
			buffer.WriteString("&gt;")
		case '"':
			buffer.WriteString("&quot;")
		default:
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}
