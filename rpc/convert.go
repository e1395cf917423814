package rpc

import "google.golang.org/protobuf/types/known/structpb"

// fields builds a struct of string values from alternating keys and values.
func fields(kv ...string) *structpb.Struct {
	st := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		st.Fields[kv[i]] = structpb.NewStringValue(kv[i+1])
	}
	return st
}

func toList[T any](items []T, f func(T) *structpb.Struct) *structpb.ListValue {
	l := &structpb.ListValue{Values: make([]*structpb.Value, len(items))}
	for i, item := range items {
		l.Values[i] = structpb.NewStructValue(f(item))
	}
	return l
}

func fromList[T any](l *structpb.ListValue, f func(*structpb.Struct) T) []T {
	items := make([]T, 0, len(l.GetValues()))
	for _, v := range l.GetValues() {
		items = append(items, f(v.GetStructValue()))
	}
	return items
}

func str(st *structpb.Struct, key string) string {
	return st.GetFields()[key].GetStringValue()
}

func routerFromStruct(st *structpb.Struct) RouterInfo {
	return RouterInfo{
		Hostname: str(st, "hostname"),
		Brand:    str(st, "brand"),
		Model:    str(st, "model"),
		OS:       str(st, "os"),
	}
}

func interfaceFromStruct(st *structpb.Struct) InterfaceInfo {
	return InterfaceInfo{
		Name:    str(st, "name"),
		Address: str(st, "address"),
		Network: str(st, "network"),
		Hosts:   uint64(st.GetFields()["hosts"].GetNumberValue()),
	}
}

func routeFromStruct(st *structpb.Struct) RouteInfo {
	return RouteInfo{
		Destination: str(st, "destination"),
		NextHop:     str(st, "next-hop"),
	}
}

func linkFromStruct(st *structpb.Struct) LinkInfo {
	return LinkInfo{
		Interface:     str(st, "interface"),
		Peer:          str(st, "peer"),
		PeerInterface: str(st, "peer-interface"),
	}
}

func eventFromStruct(st *structpb.Struct) EventInfo {
	return EventInfo{
		Type:      str(st, "type"),
		Router:    str(st, "router"),
		Interface: str(st, "interface"),
		Detail:    str(st, "detail"),
	}
}
