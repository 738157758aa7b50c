package backend

// Minimal XML-RPC codec: one method call with string parameters out, one
// scalar value or fault back. That is the entire surface rTorrent's load
// commands need, with context-aware requests left to the caller.

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

type xmlrpcFault struct {
	Code   int
	String string
}

func marshalXMLRPCCall(method string, args []string) []byte {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString("<methodCall><methodName>")
	xml.EscapeText(&buf, []byte(method))
	buf.WriteString("</methodName><params>")
	for _, arg := range args {
		buf.WriteString("<param><value><string>")
		xml.EscapeText(&buf, []byte(arg))
		buf.WriteString("</string></value></param>")
	}
	buf.WriteString("</params></methodCall>")
	return buf.Bytes()
}

type xmlrpcValue struct {
	String *string `xml:"string"`
	Int    *string `xml:"int"`
	I4     *string `xml:"i4"`
	Raw    string  `xml:",chardata"`
}

// text renders whichever scalar representation the value carries. A bare
// <value>text</value> is a string per the XML-RPC spec.
func (v xmlrpcValue) text() string {
	switch {
	case v.String != nil:
		return *v.String
	case v.Int != nil:
		return *v.Int
	case v.I4 != nil:
		return *v.I4
	}
	return strings.TrimSpace(v.Raw)
}

type xmlrpcMember struct {
	Name  string      `xml:"name"`
	Value xmlrpcValue `xml:"value"`
}

type xmlrpcMethodResponse struct {
	XMLName xml.Name       `xml:"methodResponse"`
	Fault   []xmlrpcMember `xml:"fault>value>struct>member"`
	Params  []xmlrpcValue  `xml:"params>param>value"`
}

// parseXMLRPCResponse returns the first response value, or the fault when
// the server reported one.
func parseXMLRPCResponse(raw []byte) (string, *xmlrpcFault, error) {
	var resp xmlrpcMethodResponse
	if err := xml.Unmarshal(raw, &resp); err != nil {
		return "", nil, fmt.Errorf("decoding method response: %w", err)
	}

	if len(resp.Fault) > 0 {
		fault := &xmlrpcFault{}
		for _, m := range resp.Fault {
			switch m.Name {
			case "faultCode":
				fault.Code, _ = strconv.Atoi(m.Value.text())
			case "faultString":
				fault.String = m.Value.text()
			}
		}
		return "", fault, nil
	}

	if len(resp.Params) == 0 {
		return "", nil, fmt.Errorf("method response carries no value")
	}
	return resp.Params[0].text(), nil, nil
}
