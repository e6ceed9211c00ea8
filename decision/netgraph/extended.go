package netgraph

import (
	"github.com/fabiosv/aws-resources-mapper/decision/inventory"
	"github.com/fabiosv/aws-resources-mapper/pkg/api"
)

// extendedPasses cover categories the report producer collects beyond the
// six core ones. They run after the core passes when enabled.
var extendedPasses = []pass{
	{
		category: inventory.CategoryNATGateways,
		present:  func(d *inventory.Document) bool { return d.NATGateways != nil },
		derive:   deriveNATGateways,
	},
	{
		category: inventory.CategoryVPCEndpoints,
		present:  func(d *inventory.Document) bool { return d.VPCEndpoints != nil },
		derive:   deriveVPCEndpoints,
	},
	{
		category: "vpc_peering_connections",
		present: func(d *inventory.Document) bool {
			return d.PeeringRequesters != nil || d.PeeringAccepters != nil
		},
		derive: derivePeeringConnections,
	},
	{
		category: inventory.CategoryRDSClusters,
		present:  func(d *inventory.Document) bool { return d.RDSClusters != nil },
		derive:   deriveRDSClusters,
	},
}

func deriveNATGateways(r *run, doc *inventory.Document) {
	for i, nat := range doc.NATGateways {
		if !r.usable(inventory.CategoryNATGateways, i, nat.NatGatewayId, nat) {
			continue
		}
		r.acc.addNode(nat.NatGatewayId)
		r.acc.addEdge(nat.NatGatewayId, nat.SubnetId, api.EdgeKindNATSubnet)
		r.acc.addEdge(nat.NatGatewayId, nat.VpcId, api.EdgeKindNATVPC)
	}
}

func deriveVPCEndpoints(r *run, doc *inventory.Document) {
	for i, ep := range doc.VPCEndpoints {
		if !r.usable(inventory.CategoryVPCEndpoints, i, ep.VpcEndpointId, ep) {
			continue
		}
		r.acc.addNode(ep.VpcEndpointId)
		r.acc.addEdge(ep.VpcEndpointId, ep.VpcId, api.EdgeKindEndpointVPC)
		for _, subnetID := range ep.SubnetIds {
			r.acc.addEdge(ep.VpcEndpointId, subnetID, api.EdgeKindEndpointSubnet)
		}
		for _, rtID := range ep.RouteTableIds {
			r.acc.addEdge(ep.VpcEndpointId, rtID, api.EdgeKindEndpointRouteTable)
		}
		for _, sg := range ep.Groups {
			r.acc.addEdge(ep.VpcEndpointId, sg.GroupId, api.EdgeKindEndpointSG)
		}
	}
}

// Requester and accepter listings often contain the same connection; both
// collections register their IDs in one bulk insert.
func derivePeeringConnections(r *run, doc *inventory.Document) {
	usable := func(category string, conns []inventory.PeeringConnection) ([]inventory.PeeringConnection, []string) {
		kept := make([]inventory.PeeringConnection, 0, len(conns))
		ids := make([]string, 0, len(conns))
		for i, pcx := range conns {
			if !r.usable(category, i, pcx.VpcPeeringConnectionId, pcx) {
				continue
			}
			kept = append(kept, pcx)
			ids = append(ids, pcx.VpcPeeringConnectionId)
		}
		return kept, ids
	}

	requesters, requesterIDs := usable(inventory.CategoryPeeringRequesters, doc.PeeringRequesters)
	accepters, accepterIDs := usable(inventory.CategoryPeeringAccepters, doc.PeeringAccepters)
	r.acc.addNodes(FlattenIDs([][]string{requesterIDs, accepterIDs})...)

	for _, pcx := range append(requesters, accepters...) {
		if pcx.RequesterVpcInfo != nil {
			r.acc.addEdge(pcx.VpcPeeringConnectionId, pcx.RequesterVpcInfo.VpcId, api.EdgeKindPeeringRequester)
		}
		if pcx.AccepterVpcInfo != nil {
			r.acc.addEdge(pcx.VpcPeeringConnectionId, pcx.AccepterVpcInfo.VpcId, api.EdgeKindPeeringAccepter)
		}
	}
}

func deriveRDSClusters(r *run, doc *inventory.Document) {
	for i, cluster := range doc.RDSClusters {
		if !r.usable(inventory.CategoryRDSClusters, i, cluster.DBClusterIdentifier, cluster) {
			continue
		}
		r.acc.addNode(cluster.DBClusterIdentifier)
		for _, sg := range cluster.VpcSecurityGroups {
			r.acc.addEdge(cluster.DBClusterIdentifier, sg.VpcSecurityGroupId, api.EdgeKindRDSSecurityGroup)
		}
	}
}
